package command

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Text string `json:"text" validate:"required"`
}

func (echo) CommandName() string { return "Echo" }

type other struct{}

func (other) CommandName() string { return "Other" }

func TestDispatcher_RegisterAndDispatch(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(_ context.Context, c echo) (string, error) {
		return "got " + c.Text, nil
	})

	out, err := d.Dispatch(context.Background(), echo{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "got hi", out)
	assert.True(t, d.Has("Echo"))
	assert.Equal(t, []string{"Echo"}, d.Commands())
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Dispatch(context.Background(), other{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Other"`)

	_, err = d.Dispatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestDispatcher_DuplicateRegistrationPanics(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(context.Context, echo) (string, error) { return "", nil })
	assert.Panics(t, func() {
		Register(d, func(context.Context, echo) (int, error) { return 0, nil })
	})
}

func TestDispatcher_MiddlewareOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, cmd Command) (any, error) {
				trace = append(trace, name+">")
				out, err := next(ctx, cmd)
				trace = append(trace, "<"+name)
				return out, err
			}
		}
	}

	d := NewDispatcher(mark("outer"), mark("inner"))
	Register(d, func(context.Context, echo) (string, error) {
		trace = append(trace, "handler")
		return "", nil
	})

	_, err := d.Dispatch(context.Background(), echo{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "handler", "<inner", "<outer"}, trace)
}

func TestDispatchAs(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(_ context.Context, c echo) (int, error) {
		if c.Text == "" {
			return 0, errors.New("empty")
		}
		return len(c.Text), nil
	})

	n, err := DispatchAs[int](context.Background(), d, echo{Text: "four"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = DispatchAs[string](context.Background(), d, echo{Text: "four"})
	assert.Error(t, err)

	_, err = DispatchAs[int](context.Background(), d, echo{})
	assert.EqualError(t, err, "empty")
}

func TestDispatcher_NestedDispatch(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(_ context.Context, c echo) (string, error) {
		return c.Text, nil
	})
	Register(d, func(ctx context.Context, _ other) (string, error) {
		return DispatchAs[string](ctx, d, echo{Text: "nested"})
	})

	out, err := d.Dispatch(context.Background(), other{})
	require.NoError(t, err)
	assert.Equal(t, "nested", out)
}

func TestDispatcher_Decode(t *testing.T) {
	d := NewDispatcher()
	Register(d, func(_ context.Context, c echo) (string, error) { return c.Text, nil })

	cmd, err := d.Decode("Echo", []byte(`{"text":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, echo{Text: "hello"}, cmd)

	cmd, err = d.Decode("Echo", []byte("  "))
	require.NoError(t, err)
	assert.Equal(t, echo{}, cmd)

	_, err = d.Decode("Echo", []byte(`{"text":`))
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = d.Decode("Echo", []byte(`{"txt":"x"}`))
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = d.Decode("Missing", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
