package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags:
//
//	ukpostcode    a UK postcode in any case or spacing
//	clock         a 24-hour HH:MM time
//	prayermethod  an Al Adhan calculation method id
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("ukpostcode", func(fl validator.FieldLevel) bool {
			return geo.ValidPostcode(fl.Field().String())
		})
		v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
			_, err := prayer.ParseClock(fl.Field().String())
			return err == nil && len(fl.Field().String()) == 5
		})
		v.RegisterValidation("prayermethod", func(fl validator.FieldLevel) bool {
			return api.MethodName(int(fl.Field().Int())) != ""
		})
	})
}
