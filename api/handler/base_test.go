package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/taskmaster/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "unauthorized", err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "validation", err: domain.Validation("bad"), wantStatus: http.StatusBadRequest, wantCode: "INVALID"},
		{name: "not found", err: domain.ErrTaskNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "duplicate email", err: domain.ErrDuplicateEmail, wantStatus: http.StatusConflict, wantCode: "DUPLICATE_EMAIL"},
		{name: "storage", err: domain.WrapError(domain.ErrCodeStorage, "save", errors.New("quota")), wantStatus: http.StatusServiceUnavailable, wantCode: "STORAGE_FAILURE"},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
