package resolver

import (
	"context"
	"errors"
	"io"
	"testing"

	"venuebook/internal/interval"
	"venuebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	conflict *models.Conflict
	err      error
}

func (s stubSource) FindConfirmedOverlap(_ context.Context, _ interval.Interval, _ int64) (*models.Conflict, error) {
	return s.conflict, s.err
}

func testInterval(t *testing.T) interval.Interval {
	t.Helper()
	iv, err := interval.Parse("2025-12-01", "2025-12-03")
	require.NoError(t, err)
	return iv
}

func TestCheckNoConflict(t *testing.T) {
	logger := zerolog.New(io.Discard)
	r := New(stubSource{}, stubSource{}, ModeBestEffort, &logger)

	out, err := r.Check(context.Background(), testInterval(t), 0)
	require.NoError(t, err)
	assert.Nil(t, out.Conflict)
	assert.True(t, out.Checked())
}

func TestCheckActiveTakesPrecedence(t *testing.T) {
	logger := zerolog.New(io.Discard)
	active := stubSource{conflict: &models.Conflict{Source: "active", ReservationID: 7, CustomerName: "Alice"}}
	logSrc := stubSource{conflict: &models.Conflict{Source: "log", LogID: 3, CustomerName: "Bob"}}
	r := New(active, logSrc, ModeBestEffort, &logger)

	out, err := r.Check(context.Background(), testInterval(t), 0)
	require.NoError(t, err)
	require.NotNil(t, out.Conflict)
	assert.Equal(t, "active", out.Conflict.Source)
	assert.Equal(t, "Alice", out.Conflict.CustomerName)
}

func TestCheckLogOnlyConflict(t *testing.T) {
	logger := zerolog.New(io.Discard)
	logSrc := stubSource{conflict: &models.Conflict{Source: "log", LogID: 3, CustomerName: "Bob"}}
	r := New(stubSource{}, logSrc, ModeBestEffort, &logger)

	out, err := r.Check(context.Background(), testInterval(t), 0)
	require.NoError(t, err)
	require.NotNil(t, out.Conflict)
	assert.Equal(t, "log", out.Conflict.Source)
}

func TestCheckDegradesWhenLogSourceFails(t *testing.T) {
	logger := zerolog.New(io.Discard)
	logSrc := stubSource{err: errors.New("no such table: confirmation_logs")}
	r := New(stubSource{}, logSrc, ModeBestEffort, &logger)

	out, err := r.Check(context.Background(), testInterval(t), 0)
	require.NoError(t, err)
	assert.Nil(t, out.Conflict)
	assert.True(t, out.Degraded)
	assert.False(t, out.Checked())
	require.Len(t, out.Reasons, 1)
	assert.Contains(t, out.Reasons[0], "log source unavailable")
}

func TestCheckStrictFailsWhenLogSourceFails(t *testing.T) {
	logger := zerolog.New(io.Discard)
	logSrc := stubSource{err: errors.New("no such table: confirmation_logs")}
	r := New(stubSource{}, logSrc, ModeStrict, &logger)

	_, err := r.Check(context.Background(), testInterval(t), 0)
	assert.Error(t, err)
}

func TestCheckActiveFailureAlwaysFatal(t *testing.T) {
	logger := zerolog.New(io.Discard)
	active := stubSource{err: errors.New("database is locked")}
	r := New(active, stubSource{}, ModeBestEffort, &logger)

	_, err := r.Check(context.Background(), testInterval(t), 0)
	assert.Error(t, err)
}
