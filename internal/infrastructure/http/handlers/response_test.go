package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domerrors "github.com/trackroom/trackroom/internal/domain/errors"
)

func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		wantHTTP int
		wantCode string
	}{
		{domerrors.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{domerrors.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized},
		{domerrors.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{domerrors.ErrExpired, http.StatusGone, ErrCodeTokenExpired},
		{domerrors.ErrAlreadyUsed, http.StatusGone, ErrCodeTokenUsed},
		{domerrors.ErrProjectLocked, http.StatusConflict, ErrCodeProjectLocked},
		{domerrors.ErrRevisionLimitExceeded, http.StatusConflict, ErrCodeRevisionLimit},
		{domerrors.ErrConflict, http.StatusConflict, ErrCodeConflict},
		{domerrors.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrCodeUnavailable},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDomainErr(rec, tc.err)
		if rec.Code != tc.wantHTTP {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.wantHTTP)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: bad JSON body: %v", tc.err, err)
		}
		if body["code"] != tc.wantCode {
			t.Errorf("%v: code = %q, want %q", tc.err, body["code"], tc.wantCode)
		}
	}
}

func TestUnknownErrorLeaksNothing(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainErr(rec, errSecret{})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := rec.Body.String(); strings.Contains(got, "db-internal") {
		t.Fatalf("body leaked internal detail: %s", got)
	}
}

type errSecret struct{}

func (errSecret) Error() string { return "pq: connection refused host=db-internal" }
