package api

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/policy"
	"github.com/erazemk/webshop/internal/store"
)

// PhotosHandler handles item photo endpoints.
type PhotosHandler struct {
	handler
	MaxBytes int64
}

// photoResponse carries image bytes as base64 in photo_data.
type photoResponse struct {
	model.ItemPhoto
	PhotoData string `json:"photo_data,omitempty"`
}

func newPhotoResponse(p *model.ItemPhoto) photoResponse {
	resp := photoResponse{ItemPhoto: *p}
	if len(p.PhotoData) > 0 {
		resp.PhotoData = base64.StdEncoding.EncodeToString(p.PhotoData)
	}
	resp.ItemPhoto.PhotoData = nil
	return resp
}

// photoUpload is a parsed photo request. Item and Payload are nil when the
// request did not carry them.
type photoUpload struct {
	Item    *int64
	Payload []byte
}

type photoJSON struct {
	Item      optionalID `json:"item"`
	PhotoData *string    `json:"photo_data"`
}

// readPhotoUpload accepts a JSON body with base64 photo_data, a multipart form
// with an item field and a photo_data file, or a raw image body with the item
// in the query string.
func (h *PhotosHandler) readPhotoUpload(r *http.Request) (*photoUpload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	up := &photoUpload{}

	switch {
	case mediaType == "application/json":
		var body photoJSON
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		up.Item = body.Item.ID
		if body.PhotoData != nil {
			up.Payload = []byte(*body.PhotoData)
		}

	case mediaType == "multipart/form-data":
		maxMemory := h.MaxBytes
		if maxMemory <= 0 {
			maxMemory = 32 << 20
		}
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, apperr.Wrap(apperr.KindValidationFailed, "request body too large", err)
			}
			return nil, apperr.Wrap(apperr.KindValidationFailed, "invalid multipart form", err)
		}
		id, err := parseItemID(r.FormValue("item"))
		if err != nil {
			return nil, err
		}
		up.Item = id

		file, _, err := r.FormFile("photo_data")
		switch {
		case err == nil:
			defer file.Close()
			if up.Payload, err = io.ReadAll(file); err != nil {
				return nil, apperr.Wrap(apperr.KindValidationFailed, "reading photo", err)
			}
		case errors.Is(err, http.ErrMissingFile):
			// Base64 text may also arrive as a plain form value.
			if text := r.FormValue("photo_data"); text != "" {
				up.Payload = []byte(text)
			}
		default:
			return nil, apperr.Wrap(apperr.KindValidationFailed, "invalid multipart form", err)
		}

	default:
		id, err := parseItemID(r.URL.Query().Get("item"))
		if err != nil {
			return nil, err
		}
		up.Item = id

		defer r.Body.Close()
		data, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, apperr.Wrap(apperr.KindValidationFailed, "request body too large", err)
			}
			return nil, err
		}
		if len(data) > 0 {
			up.Payload = data
		}
	}

	return up, nil
}

func parseItemID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, apperr.Validation("item_invalid")
	}
	return &id, nil
}

// List handles GET /api/itemphotos. Image data is left out; it is served by
// the detail and image endpoints.
func (h *PhotosHandler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := store.ListPhotos(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if photos == nil {
		photos = []model.ItemPhoto{}
	}
	jsonResponse(w, http.StatusOK, photos)
}

// Create handles POST /api/itemphotos.
func (h *PhotosHandler) Create(w http.ResponseWriter, r *http.Request) {
	up, err := h.readPhotoUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var itemID int64
	if up.Item != nil {
		itemID = *up.Item
	}
	result, err := h.Validator.Photo(r.Context(), itemID, up.Payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := store.CreatePhoto(r.Context(), h.DB, &model.ItemPhoto{
		ItemID:    itemID,
		PhotoData: result.Data,
		MIME:      result.MIME,
		Width:     result.Width,
		Height:    result.Height,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("item photo created", "id", created.ID, "item", itemID, "mime", created.MIME)
	created.PhotoData = nil
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/itemphotos/{id}.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	photo, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, newPhotoResponse(photo))
}

// Image handles GET /api/itemphotos/{id}/image with the raw image bytes.
func (h *PhotosHandler) Image(w http.ResponseWriter, r *http.Request) {
	photo, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", photo.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(photo.PhotoData)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(photo.PhotoData); err != nil {
		LoggerFrom(r.Context()).Warn("writing image", "error", err)
	}
}

// Update handles PUT and PATCH /api/itemphotos/{id}. Only the owner of the
// photo's item may change it, and moving a photo also requires owning the new
// item. PATCH without photo_data keeps the stored image.
func (h *PhotosHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor := ActorFrom(r.Context())
	if err := h.authorizeItem(r, actor, policy.ActionUpdate, existing.ItemID); err != nil {
		writeError(w, r, err)
		return
	}

	up, err := h.readPhotoUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	photo := *existing
	if up.Item != nil {
		photo.ItemID = *up.Item
	} else if r.Method == http.MethodPut {
		photo.ItemID = 0
	}

	if up.Payload == nil && r.Method == http.MethodPatch {
		if err := h.Validator.PhotoItem(r.Context(), photo.ItemID); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		result, err := h.Validator.Photo(r.Context(), photo.ItemID, up.Payload)
		if err != nil {
			writeError(w, r, err)
			return
		}
		photo.PhotoData, photo.MIME = result.Data, result.MIME
		photo.Width, photo.Height = result.Width, result.Height
	}

	if photo.ItemID != existing.ItemID {
		if err := h.authorizeItem(r, actor, policy.ActionUpdate, photo.ItemID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := store.UpdatePhoto(r.Context(), h.DB, &photo); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("item photo updated", "id", photo.ID, "item", photo.ItemID)
	photo.PhotoData = nil
	jsonResponse(w, http.StatusOK, photo)
}

// Delete handles DELETE /api/itemphotos/{id}.
func (h *PhotosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.authorizeItem(r, ActorFrom(r.Context()), policy.ActionDelete, existing.ItemID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeletePhoto(r.Context(), h.DB, existing.ID); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("item photo deleted", "id", existing.ID)
	deleted(w, "item photo")
}

// authorizeItem checks the action against the owner of the photo's item.
func (h *PhotosHandler) authorizeItem(r *http.Request, actor policy.Actor, action policy.Action, itemID int64) error {
	item, err := store.GetItem(r.Context(), h.DB, itemID)
	if err != nil {
		return err
	}
	var target policy.Ownable
	if item != nil {
		target = item
	}
	return h.Policy.Authorize(actor, policy.ItemPhotos, action, target)
}

func (h *PhotosHandler) load(r *http.Request) (*model.ItemPhoto, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	photo, err := store.GetPhoto(r.Context(), h.DB, id)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, apperr.NotFound("item photo")
	}
	return photo, nil
}
