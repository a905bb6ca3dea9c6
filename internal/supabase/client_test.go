package supabase

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wajahat01/NeuroLab-360-sub001/pkg/config"
	"github.com/wajahat01/NeuroLab-360-sub001/pkg/errors"
)

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(&config.SupabaseConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, err = New(&config.SupabaseConfig{URL: "https://demo.supabase.co"})
	require.Error(t, err)
}

func TestNewWithCredentials(t *testing.T) {
	client, err := New(&config.SupabaseConfig{
		URL:            "https://demo.supabase.co",
		ServiceRoleKey: "service-role-key",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.Raw())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  errors.ErrorType
		retryable bool
	}{
		{"connection refused", stderrors.New("dial tcp: connection refused"), errors.ErrorTypeNetwork, true},
		{"dns failure", stderrors.New("lookup db.supabase.co: no such host"), errors.ErrorTypeNetwork, true},
		{"timeout", stderrors.New("context deadline exceeded: timeout"), errors.ErrorTypeNetwork, true},
		{"missing row", stderrors.New("(PGRST116) JSON object requested, multiple (or no) rows returned"), errors.ErrorTypeNotFound, false},
		{"bad credentials", stderrors.New("invalid API key"), errors.ErrorTypeAuthentication, false},
		{"unique violation", stderrors.New("duplicate key value violates unique constraint"), errors.ErrorTypeValidation, false},
		{"rate limited", stderrors.New("too many requests"), errors.ErrorTypeRateLimit, false},
		{"anything else", stderrors.New("unexpected server response"), errors.ErrorTypeDatabase, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			assert.True(t, errors.IsType(classified, tt.wantType), "got %v", classified)
			assert.Equal(t, tt.retryable, errors.IsRetryable(classified))
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassifyErrorPassesThroughTypedErrors(t *testing.T) {
	typed := errors.NewNotFoundError("experiment")
	assert.Same(t, typed, ClassifyError(typed).(*errors.AppError))
	assert.Nil(t, ClassifyError(nil))
}
