package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestE(t *testing.T) {
	base := errs.Str("something broke")

	inner := errs.E(errs.NotExist, errs.Op("tables.Client.GetTable"), errs.Parameter("name"), base)
	outer := errs.E(errs.Op("syncService.GetSchema"), inner)

	assert.True(t, errs.KindIs(errs.NotExist, outer))
	assert.False(t, errs.KindIs(errs.IO, outer))
	assert.True(t, errors.Is(outer, base))
	assert.Equal(t, "something broke", outer.Error())
	assert.Equal(t, []string{"syncService.GetSchema", "tables.Client.GetTable"}, errs.OpStack(outer))
	assert.Equal(t, "syncService.GetSchema: tables.Client.GetTable: something broke", errs.Message(outer))

	var e *errs.Error
	assert.True(t, errors.As(outer, &e))
	assert.Equal(t, errs.Parameter("name"), e.Param)
}

func TestEOuterKindWins(t *testing.T) {
	inner := errs.E(errs.IO, "inner", errs.Str("boom"))
	outer := errs.E(errs.Internal, "outer", inner)

	assert.True(t, errs.KindIs(errs.Internal, outer))
}

func TestKindIsPlainError(t *testing.T) {
	assert.False(t, errs.KindIs(errs.Internal, errors.New("plain")))
}

func TestHTTPErrorResponse(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "invalid request exposes message",
			err:    errs.E(errs.InvalidRequest, errs.Op("op"), errs.Parameter("c1"), errs.Str("bad value")),
			status: http.StatusBadRequest,
			body:   `{"error":{"kind":"invalid_request_error","param":"c1","message":"bad value"}}` + "\n",
		},
		{
			name:   "not exist",
			err:    errs.E(errs.NotExist, errs.Op("op"), errs.Str("no such table")),
			status: http.StatusNotFound,
			body:   `{"error":{"kind":"item_does_not_exist","message":"no such table"}}` + "\n",
		},
		{
			name:   "internal hides message",
			err:    errs.E(errs.Internal, errs.Op("op"), errs.Str("secret detail")),
			status: http.StatusInternalServerError,
			body:   `{"error":{"kind":"internal_error"}}` + "\n",
		},
		{
			name:   "plain error",
			err:    errors.New("plain"),
			status: http.StatusInternalServerError,
			body:   `{"error":{"kind":"internal_error"}}` + "\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			errs.HTTPErrorResponse(rr, zerolog.Nop(), tc.err)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.body, rr.Body.String())
		})
	}
}

func TestKindOf(t *testing.T) {
	inner := errs.E(errs.Invalid, "inner", errs.Str("bad"))
	wrapped := errs.E("outer", fmt.Errorf("element 0: %w", inner))

	assert.Equal(t, errs.Invalid, errs.KindOf(wrapped))
	assert.Equal(t, errs.Other, errs.KindOf(errors.New("plain")))

	se, status := errs.ToServiceError(wrapped)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "element 0: bad", se.Message)
}
