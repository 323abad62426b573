package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RoutesByVariant(t *testing.T) {
	store := newTempStore(t)
	dispatcher := NewDispatcher(NewRawDriver(nil), NewIPPDriver(nil), NewFileDriver(store, nil), nil)

	descriptor, err := dispatcher.Dispatch(context.Background(), []byte("data"), FileDestination{
		OrgName: "acme",
		Format:  "zpl",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(descriptor, "printjobs/acme/"))
}

func TestDispatcher_NilDestination(t *testing.T) {
	store := newTempStore(t)
	dispatcher := NewDispatcher(NewRawDriver(nil), NewIPPDriver(nil), NewFileDriver(store, nil), nil)

	_, err := dispatcher.Dispatch(context.Background(), []byte("data"), nil)
	require.Error(t, err)

	var deliveryErr *DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, ErrInvalidDestination, deliveryErr.Kind)
}
