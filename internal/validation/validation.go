// Package validation checks entities before they are written. Field rules are
// declared as struct tags on the model types; rules that span fields or other
// records are checked here against a Lookup.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/imaging"
	"github.com/erazemk/webshop/internal/model"
)

// Lookup answers existence questions about stored records.
type Lookup interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	ItemExists(ctx context.Context, id int64) (bool, error)
	WarehouseExists(ctx context.Context, id int64) (bool, error)
	ReviewExists(ctx context.Context, reviewerID int64, target model.ReviewTarget, excludeID int64) (bool, error)
}

// Engine validates entities. It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
	lookup   Lookup

	// MaxPhotoDimension bounds the width and height of stored photos. Zero
	// keeps photos at their original size.
	MaxPhotoDimension int
}

// New returns an engine that checks references through lookup.
func New(lookup Lookup) *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Engine{validate: v, lookup: lookup}
}

// rules collects violated rule names without duplicates.
type rules []string

func (r *rules) add(name string) {
	for _, existing := range *r {
		if existing == name {
			return
		}
	}
	*r = append(*r, name)
}

func (r rules) err() error {
	if len(r) == 0 {
		return nil
	}
	return apperr.Validation(r...)
}

// tags runs the struct tag rules on s.
func (e *Engine) tags(s any, r *rules) error {
	err := e.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating %T: %w", s, err)
	}
	for _, fe := range fieldErrs {
		r.add(ruleName(fe))
	}
	return nil
}

// ruleName turns a failed tag into a rule name such as name_blank or
// rating_range.
func ruleName(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + "_required"
	case "notblank":
		return field + "_blank"
	case "max":
		if fe.Kind() == reflect.String {
			return field + "_too_long"
		}
		return field + "_range"
	case "min":
		if fe.Kind() == reflect.String {
			return field + "_too_short"
		}
		return field + "_range"
	case "gt":
		return field + "_positive"
	default:
		return field + "_invalid"
	}
}

// Review checks a review before it is created or replaced. The comment is
// trimmed in place. Every violated rule is reported.
func (e *Engine) Review(ctx context.Context, review *model.Review) error {
	review.Comment = strings.TrimSpace(review.Comment)

	var r rules
	if err := e.tags(review, &r); err != nil {
		return err
	}

	switch review.Type {
	case model.ReviewTypeItem:
		if review.ItemID == nil {
			r.add("item_required")
		}
		if review.ReviewedUserID != nil {
			r.add("reviewed_user_forbidden")
		}
	case model.ReviewTypeUser:
		if review.ReviewedUserID == nil {
			r.add("reviewed_user_required")
		} else if *review.ReviewedUserID == review.ReviewerID {
			r.add("self_review")
		}
		if review.ItemID != nil {
			r.add("item_forbidden")
		}
	default:
		r.add("review_type_invalid")
	}

	target, err := review.Target()
	if err != nil {
		// The shape rules above already name the problem.
		return r.err()
	}

	var exists bool
	switch target.Type {
	case model.ReviewTypeItem:
		exists, err = e.lookup.ItemExists(ctx, target.ID)
		if err == nil && !exists {
			r.add("item_not_found")
		}
	case model.ReviewTypeUser:
		exists, err = e.lookup.UserExists(ctx, target.ID)
		if err == nil && !exists {
			r.add("reviewed_user_not_found")
		}
	}
	if err != nil {
		return err
	}

	if exists {
		dup, err := e.lookup.ReviewExists(ctx, review.ReviewerID, target, review.ID)
		if err != nil {
			return err
		}
		if dup {
			r.add("duplicate_review")
		}
	}

	return r.err()
}

// Item checks an item's name and price.
func (e *Engine) Item(item *model.Item) error {
	var r rules
	if err := e.tags(item, &r); err != nil {
		return err
	}

	switch {
	case !item.Price.Valid():
		r.add("price_required")
	case !item.Price.IsPositive():
		r.add("price_positive")
	case item.Price.TooLarge():
		r.add("price_too_large")
	}

	return r.err()
}

// Warehouse checks a warehouse's name, address and capacity.
func (e *Engine) Warehouse(w *model.Warehouse) error {
	var r rules
	if err := e.tags(w, &r); err != nil {
		return err
	}
	return r.err()
}

// Employee checks an employee and its warehouse reference.
func (e *Engine) Employee(ctx context.Context, emp *model.Employee) error {
	var r rules
	if err := e.tags(emp, &r); err != nil {
		return err
	}

	if emp.WarehouseID != nil {
		ok, err := e.lookup.WarehouseExists(ctx, *emp.WarehouseID)
		if err != nil {
			return err
		}
		if !ok {
			r.add("warehouse_not_found")
		}
	}

	return r.err()
}

// User checks a user's profile. A non-nil password is checked against the
// password policy; creation always passes one.
func (e *Engine) User(u *model.User, password *string) error {
	var r rules
	if err := e.tags(u, &r); err != nil {
		return err
	}

	if password != nil {
		switch err := model.ValidatePassword(*password); {
		case *password == "":
			r.add("password_required")
		case errors.Is(err, model.ErrPasswordTooShort):
			r.add("password_too_short")
		case errors.Is(err, model.ErrPasswordTooLong):
			r.add("password_too_long")
		}
	}

	return r.err()
}

// Photo checks a photo upload for itemID and returns the image to store.
// payload may be raw image bytes or base64 text; a nil payload is reported as
// photo_required.
func (e *Engine) Photo(ctx context.Context, itemID int64, payload []byte) (*imaging.Result, error) {
	var r rules

	if itemID == 0 {
		r.add("item_required")
	} else if err := e.itemExists(ctx, itemID, &r); err != nil {
		return nil, err
	}

	result, err := e.photoData(payload, &r)
	if err != nil {
		return nil, err
	}

	if err := r.err(); err != nil {
		return nil, err
	}
	return result, nil
}

// PhotoItem checks only the item reference of a photo, for updates that keep
// the stored image.
func (e *Engine) PhotoItem(ctx context.Context, itemID int64) error {
	var r rules
	if err := e.itemExists(ctx, itemID, &r); err != nil {
		return err
	}
	return r.err()
}

func (e *Engine) itemExists(ctx context.Context, itemID int64, r *rules) error {
	ok, err := e.lookup.ItemExists(ctx, itemID)
	if err != nil {
		return err
	}
	if !ok {
		r.add("item_not_found")
	}
	return nil
}

func (e *Engine) photoData(payload []byte, r *rules) (*imaging.Result, error) {
	data, err := imaging.DecodePayload(payload)
	switch {
	case errors.Is(err, imaging.ErrEmpty):
		r.add("photo_required")
		return nil, nil
	case errors.Is(err, imaging.ErrNotBase64):
		r.add("photo_base64_invalid")
		return nil, nil
	case err != nil:
		return nil, err
	}

	result, err := imaging.Process(data, e.MaxPhotoDimension)
	if errors.Is(err, imaging.ErrUnsupportedFormat) {
		r.add("photo_format_invalid")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
