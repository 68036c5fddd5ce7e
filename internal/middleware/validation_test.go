package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type productRequest struct {
	Nome  string   `json:"nome" validate:"required,max=200"`
	Preco *float64 `json:"preco" validate:"required,gte=0"`
	Ativo *bool    `json:"ativo"`
}

func decode(t *testing.T, body map[string]interface{}) error {
	t.Helper()

	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/produtos", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	var pr productRequest
	return DecodeAndValidate(httptest.NewRecorder(), req, &pr)
}

// Feature: catalog-service, Property: required fields are enforced
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeNome bool, includePreco bool) bool {
			body := map[string]interface{}{}
			if includeNome {
				body["nome"] = "Pizza"
			}
			if includePreco {
				body["preco"] = 0
			}

			err := decode(t, body)
			if includeNome && includePreco {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: catalog-service, Property: negative prices are rejected
func TestProperty_PriceRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("preco below zero is rejected", prop.ForAll(
		func(preco float64) bool {
			err := decode(t, map[string]interface{}{"nome": "Pizza", "preco": preco})
			if preco >= 0 {
				return err == nil
			}
			return err != nil
		},
		gen.Float64Range(-1000, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrorsUsesJSONNames(t *testing.T) {
	err := decode(t, map[string]interface{}{"preco": -1})

	errs := FormatValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}
	if fields["nome"] != "This field is required" {
		t.Errorf("nome message = %q", fields["nome"])
	}
	if !strings.HasPrefix(fields["preco"], "Value must be greater than or equal to 0") {
		t.Errorf("preco message = %q", fields["preco"])
	}
}

func TestFormatValidationErrorsIgnoresDecodeErrors(t *testing.T) {
	req := httptest.NewRequest("POST", "/produtos", strings.NewReader("{not json"))

	var pr productRequest
	err := DecodeAndValidate(httptest.NewRecorder(), req, &pr)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errs := FormatValidationErrors(err); len(errs) != 0 {
		t.Errorf("decode error formatted as validation errors: %v", errs)
	}
}

func TestFalseBooleanPointerIsPresent(t *testing.T) {
	type statusRequest struct {
		Ativo *bool `json:"ativo" validate:"required"`
	}

	req := httptest.NewRequest("PUT", "/produtos/p1/status", strings.NewReader(`{"ativo": false}`))
	var sr statusRequest
	if err := DecodeAndValidate(httptest.NewRecorder(), req, &sr); err != nil {
		t.Fatalf("false should satisfy required on a pointer: %v", err)
	}

	req = httptest.NewRequest("PUT", "/produtos/p1/status", strings.NewReader(`{}`))
	if err := DecodeAndValidate(httptest.NewRecorder(), req, &statusRequest{}); err == nil {
		t.Fatal("missing ativo should fail")
	}
}

func TestDecodeAndValidateRejectsOversizedBody(t *testing.T) {
	body := `{"nome":"` + strings.Repeat("a", MaxRequestBodyBytes) + `","preco":1}`
	req := httptest.NewRequest("POST", "/produtos", strings.NewReader(body))

	var pr productRequest
	err := DecodeAndValidate(httptest.NewRecorder(), req, &pr)

	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		t.Fatalf("err = %v, want *http.MaxBytesError", err)
	}
	if maxErr.Limit != MaxRequestBodyBytes {
		t.Errorf("limit = %d, want %d", maxErr.Limit, MaxRequestBodyBytes)
	}
}
