package lead

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

const (
	FieldFullName    = "fullName"
	FieldPhoneNumber = "phoneNumber"
	FieldConsent     = "consent"

	MsgFullName      = "Please enter a valid name (minimum 2 characters)"
	MsgNameTooLong   = "Name is too long (maximum 120 characters)"
	MsgPhoneRequired = "Phone number is required"
	MsgPhoneInvalid  = "Please enter a valid phone number"
	MsgConsent       = "You must agree to the terms"
	MsgHandleTooLong = "Instagram handle is too long"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns field -> message for every problem in form. An empty map
// means the form can be submitted.
func Validate(form Form) map[string]string {
	errs := make(map[string]string)

	trimmed := form
	trimmed.FullName = strings.TrimSpace(form.FullName)
	trimmed.InstagramHandle1 = NormalizeHandle(form.InstagramHandle1)
	trimmed.InstagramHandle2 = NormalizeHandle(form.InstagramHandle2)

	if err := validate.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case FieldFullName:
					if fe.Tag() == "max" {
						errs[FieldFullName] = MsgNameTooLong
					} else {
						errs[FieldFullName] = MsgFullName
					}
				case "instagramHandle1", "instagramHandle2":
					errs[fe.Field()] = MsgHandleTooLong
				}
			}
		} else {
			errs[FieldFullName] = MsgFullName
		}
	}

	if msg := checkPhone(form.CountryCode, form.PhoneNumber); msg != "" {
		errs[FieldPhoneNumber] = msg
	}

	if !form.ConsentGiven {
		errs[FieldConsent] = MsgConsent
	}

	return errs
}

func checkPhone(countryCode, phone string) string {
	if strings.TrimSpace(phone) == "" {
		return MsgPhoneRequired
	}
	if !PlausiblePhone(countryCode, phone) {
		return MsgPhoneInvalid
	}
	return ""
}

// PlausiblePhone reports whether the number has a possible length for the
// country behind the calling code.
func PlausiblePhone(countryCode, phone string) bool {
	national := digitsOnly(phone)
	code := digitsOnly(countryCode)
	if national == "" || code == "" {
		return false
	}

	num, err := phonenumbers.Parse("+"+code+national, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumberWithReason(num) == phonenumbers.IS_POSSIBLE
}
