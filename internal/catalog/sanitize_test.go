// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestStripFields verifies the deep-strip rules: empties vanish at any
depth, zero numbers and false survive.
*/
func TestStripFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   map[string]any
	}{
		{
			name:   "blank strings dropped",
			fields: map[string]any{"title": "Kept", "description": ""},
			want:   map[string]any{"title": "Kept"},
		},
		{
			name:   "nil and empty slices dropped",
			fields: map[string]any{"categories": []string{}, "status": nil, "author": "Kept"},
			want:   map[string]any{"author": "Kept"},
		},
		{
			name: "nested empties collapse upward",
			fields: map[string]any{
				"meta": map[string]any{"inner": "", "empty": map[string]any{}},
				"tags": []any{"", map[string]any{}},
			},
			want: map[string]any{},
		},
		{
			name: "slice keeps non-empty elements",
			fields: map[string]any{
				"categories": []string{"c1", "", "c2"},
			},
			want: map[string]any{"categories": []string{"c1", "c2"}},
		},
		{
			name:   "zero values that are not emptiness survive",
			fields: map[string]any{"views": int64(0), "rating": 0.0, "flag": false},
			want:   map[string]any{"views": int64(0), "rating": 0.0, "flag": false},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, stripFields(test.fields))
		})
	}
}
