// ABOUTME: Tests for error classification into the closed taxonomy
// ABOUTME: Raw collaborator errors must never survive classification

package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NEARBuilders/cyborg-gateway/internal/provider"
	"github.com/NEARBuilders/cyborg-gateway/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantRetry  bool
	}{
		{"provider unauthorized", provider.ErrUnauthorized, KindUnauthorized, false},
		{"provider rate limited", provider.ErrRateLimited, KindRateLimited, true},
		{"provider unavailable", provider.ErrUnavailable, KindUnavailable, true},
		{"wrapped provider error", errors.Join(errors.New("ctx"), provider.ErrUnavailable), KindUnavailable, true},
		{"store not found", store.ErrNotFound, KindNotFound, false},
		{"arbitrary failure", errors.New("sqlite: database is locked"), KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantRetry {
				assert.Greater(t, got.RetryAfter, time.Duration(0))
			} else {
				assert.Zero(t, got.RetryAfter)
			}
		})
	}
}

func TestClassify_SanitizesMessages(t *testing.T) {
	raw := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	got := Classify(raw)
	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "internal error", got.Message)
	assert.NotContains(t, got.Error(), "10.0.0.5")
}

func TestClassify_TypedPassthrough(t *testing.T) {
	typed := NewError(KindAccessDenied, "conversation belongs to another account")
	assert.Same(t, typed, Classify(typed))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewError(KindNotFound, "gone")))
	assert.Equal(t, KindInternal, KindOf(errors.New("anything")))
}
