package mq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogEvent_RoutingKey 路由键按事件类型生成
func TestCatalogEvent_RoutingKey(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"book_created", "catalog.book_created"},
		{"review_deleted", "catalog.review_deleted"},
	}

	for _, tt := range tests {
		e := CatalogEvent{Kind: tt.kind, EntityID: 42, OccurredAt: time.Now()}
		assert.Equal(t, tt.want, e.RoutingKey())
	}
}

// TestCatalogEvent_NumericIDs 实体ID按数字序列化,与目录主键同型
func TestCatalogEvent_NumericIDs(t *testing.T) {
	e := CatalogEvent{Kind: "review_created", EntityID: 7, BookID: 3, OccurredAt: time.Now()}

	body, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, float64(7), decoded["entity_id"])
	assert.Equal(t, float64(3), decoded["book_id"])
}
