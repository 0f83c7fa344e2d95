package query_test

import (
	"testing"
	"time"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/chennaiartisanal/provenance/market/query"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func pointerOf[T any](v T) *T {
	return &v
}

var (
	ravi  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	buyer = common.HexToAddress("0x00000000000000000000000000000000000000b2")

	pot = &gateway.Item{
		TokenID:  3,
		TokenURI: "ipfs://bafkpot",
		ItemDetails: gateway.ItemDetails{
			ItemFields: gateway.ItemFields{
				Name:        "Clay Pot",
				Description: "Wheel thrown",
				Materials:   "Clay",
			},
			Artisan:   ravi,
			CreatedAt: time.Unix(1_700_000_000, 0),
		},
		Owner: buyer,
	}
)

func TestParse(t *testing.T) {
	t.Run("quoted string", func(t *testing.T) {
		v, err := query.Parse(`name = "test\"2"`)
		require.NoError(t, err)

		require.Equal(
			t,
			&query.Expression{
				Or: &query.OrExpression{
					Left: &query.AndExpression{
						Left: &query.Term{
							Expr: &query.EqualExpr{
								Compare: &query.Comparison{
									Var: "name",
									Op:  "=",
									Value: &query.Value{
										String: pointerOf("test\"2"),
									},
								},
							},
						},
					},
				},
			},
			v,
		)
	})

	t.Run("negated number", func(t *testing.T) {
		v, err := query.Parse(`!id >= 123`)
		require.NoError(t, err)

		require.Equal(
			t,
			&query.Expression{
				Or: &query.OrExpression{
					Left: &query.AndExpression{
						Left: &query.Term{
							Not: true,
							Expr: &query.EqualExpr{
								Compare: &query.Comparison{
									Var: "id",
									Op:  ">=",
									Value: &query.Value{
										Number: pointerOf(uint64(123)),
									},
								},
							},
						},
					},
				},
			},
			v,
		)
	})

	t.Run("owner", func(t *testing.T) {
		v, err := query.Parse(`$owner = "` + buyer.Hex() + `"`)
		require.NoError(t, err)
		require.Equal(t, buyer.Hex(), v.Or.Left.Left.Expr.Owner.Owner)
	})

	for _, bad := range []string{
		``,
		`name =`,
		`colour = "red"`,
		`name = 3`,
		`id = "3"`,
		`id ~ 3`,
		`name > "a"`,
		`$owner = "nobody"`,
		`(name = "a"`,
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := query.Parse(bad)
			require.ErrorIs(t, err, failure.ErrInvalidInput)
		})
	}
}

func TestMatch(t *testing.T) {
	for _, tc := range []struct {
		query string
		want  bool
	}{
		{`name = "Clay Pot"`, true},
		{`name != "Clay Pot"`, false},
		{`name ~ "pot"`, true},
		{`description ~ "kiln"`, false},
		{`description ~ "WHEEL THROWN"`, true},
		{`materials = "Clay" && id = 3`, true},
		{`materials = "Brass" || id < 4`, true},
		{`materials = "Brass" || id > 3`, false},
		{`id >= 3 && id <= 3`, true},
		{`created >= 1700000000 && created < 1700000001`, true},
		{`!(materials = "Clay")`, false},
		{`!materials = "Brass" && uri ~ "bafk"`, true},
		{`$owner = "` + buyer.Hex() + `"`, true},
		{`$artisan = "` + buyer.Hex() + `"`, false},
		{`$artisan = "` + ravi.Hex() + `" && (name ~ "lamp" || name ~ "pot")`, true},
	} {
		t.Run(tc.query, func(t *testing.T) {
			e, err := query.Parse(tc.query)
			require.NoError(t, err)
			require.Equal(t, tc.want, e.Match(pot))
		})
	}
}
