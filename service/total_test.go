package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finance-form/domain"
)

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		name   string
		values map[domain.FieldID]string
		want   string
	}{
		{
			name: "all fields",
			values: map[domain.FieldID]string{
				domain.SalesPrice:  "30000.00",
				domain.DownPayment: "3000.00",
				domain.Warranty:    "500.00",
				domain.CPI:         "0.00",
				domain.Gap:         "200.00",
			},
			want: "$27,700.00",
		},
		{
			name:   "initial values",
			values: InitialValues,
			want:   "$25,037.00",
		},
		{
			name: "malformed operands count as zero",
			values: map[domain.FieldID]string{
				domain.SalesPrice:  "$12,000.50",
				domain.DownPayment: "n/a",
				domain.Warranty:    "",
				domain.Gap:         "99",
			},
			want: "$12,099.50",
		},
		{
			name:   "empty",
			values: nil,
			want:   "$0.00",
		},
		{
			name: "down payment larger than price",
			values: map[domain.FieldID]string{
				domain.SalesPrice:  "1000",
				domain.DownPayment: "1500.25",
			},
			want: "-$500.25",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ComputeTotal(tc.values))
		})
	}
}
