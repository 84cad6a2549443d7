// Package service implements the donation intake, catalog and order
// fulfilment operations. Every exported method runs in exactly one store
// transaction, and privileged methods check the caller's role before touching
// anything else.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/imaging"
	"github.com/erazemk/donacije/internal/model"
)

// Services bundles the domain components around one shared store.
type Services struct {
	Directory  *Directory
	Catalog    *Catalog
	Intake     *Intake
	Fulfilment *Fulfilment
	Query      *Query
}

// New wires every component to st. Photos bound item photo uploads.
func New(st *db.Store, photos imaging.Options) *Services {
	return &Services{
		Directory:  &Directory{store: st},
		Catalog:    &Catalog{store: st, photos: photos},
		Intake:     &Intake{store: st, now: time.Now},
		Fulfilment: &Fulfilment{store: st, now: time.Now},
		Query:      &Query{store: st},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match the request payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and reports failures as
// model.ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, strings.Join(msgs, ", "))
}

// today is the current calendar date in UTC.
func today(now func() time.Time) time.Time {
	return now().UTC().Truncate(24 * time.Hour)
}
