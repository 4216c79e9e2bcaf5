package router

import (
	"context"
	"testing"

	"fareguard-service/internal/domain/entity"
	"fareguard-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	code  string
	calls int
}

func (h *stubHandler) Code() string { return h.code }

func (h *stubHandler) Submit(ctx context.Context, input entity.SubmissionInput) (*entity.Credit, error) {
	h.calls++
	return &entity.Credit{Amount: input.Request.PriceDifference, Code: "WN-0000000001", Channel: "stub"}, nil
}

func TestAirlineRouter_Submit(t *testing.T) {
	r := NewAirlineRouter(logger.NewNopLogger())
	wn := &stubHandler{code: "WN"}
	r.Register(wn)

	credit, err := r.Submit(context.Background(), entity.SubmissionInput{
		Flight:  &entity.Flight{AirlineCode: "wn"},
		Request: &entity.EcreditRequest{PriceDifference: 40},
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, credit.Amount)
	assert.Equal(t, 1, wn.calls)
}

func TestAirlineRouter_UnsupportedAirline(t *testing.T) {
	r := NewAirlineRouter(logger.NewNopLogger())
	r.Register(&stubHandler{code: "WN"})

	_, err := r.Submit(context.Background(), entity.SubmissionInput{
		Flight:  &entity.Flight{AirlineCode: "AA"},
		Request: &entity.EcreditRequest{},
	})
	assert.ErrorIs(t, err, entity.ErrUnsupportedAirline)
	assert.Equal(t, "airline AA: unsupported airline", err.Error())
	assert.Nil(t, r.GetHandler("AA"))
}
