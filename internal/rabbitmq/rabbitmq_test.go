package rabbitmq

import (
	"testing"

	"contacts_api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_WireFormat(t *testing.T) {
	body, err := Encode(models.Message{To: "a@x.com", Subject: "Verify email", HTML: "<a>x</a>"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"to":"a@x.com","subject":"Verify email","html":"<a>x</a>"}`, string(body))
}

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"to":"a@x.com","subject":"s","html":"h"}`))
	require.NoError(t, err)
	assert.Equal(t, models.Message{To: "a@x.com", Subject: "s", HTML: "h"}, msg)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"subject":"s"}`))
	assert.Error(t, err)
}
