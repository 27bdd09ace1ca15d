// internal/handlers/validation.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ammerola/kasir-be/internal/core/domain"
	"github.com/ammerola/kasir-be/internal/core/ports"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReportParams are the query parameters shared by every report route
type ReportParams struct {
	StartDate     string `query:"startDate" validate:"omitempty,max=32"`
	EndDate       string `query:"endDate" validate:"omitempty,max=32"`
	Continuous    string `query:"continuous" validate:"omitempty,boolean"`
	PaymentMethod string `query:"paymentMethod" validate:"omitempty,oneof=cash transfer debit"`
	Format        string `query:"format" validate:"omitempty,oneof=xlsx pdf json"`
}

func parseReportParams(r *http.Request) (ReportParams, error) {
	q := r.URL.Query()
	params := ReportParams{
		StartDate:     strings.TrimSpace(q.Get("startDate")),
		EndDate:       strings.TrimSpace(q.Get("endDate")),
		Continuous:    strings.TrimSpace(q.Get("continuous")),
		PaymentMethod: strings.ToLower(strings.TrimSpace(q.Get("paymentMethod"))),
		Format:        strings.ToLower(strings.TrimSpace(q.Get("format"))),
	}
	if err := validate.Struct(params); err != nil {
		return params, validationError(err)
	}
	return params, nil
}

// Query converts the parameters into a service query
func (p ReportParams) Query() ports.ReportQuery {
	continuous, _ := strconv.ParseBool(p.Continuous)
	return ports.ReportQuery{
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		Continuous:    continuous,
		PaymentMethod: domain.PaymentMethod(p.PaymentMethod),
	}
}

// validationError flattens validator errors into one invalid-record error
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields = append(fields, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: %s", domain.ErrInvalidRecord, strings.Join(fields, "; "))
}
