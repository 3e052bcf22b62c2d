package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func paginationContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/rides?"+query, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, PageSize: DefaultPageSize, Sort: "date", Order: "asc"}},
		{"page=3&page_size=5&sort=price&order=desc", PaginationParams{Page: 3, PageSize: 5, Sort: "price", Order: "desc"}},
		{"page=-1&page_size=1000", PaginationParams{Page: 1, PageSize: MaxPageSize, Sort: "date", Order: "asc"}},
		{"page=9223372036854775807&page_size=100", PaginationParams{Page: MaxPage, PageSize: MaxPageSize, Sort: "date", Order: "asc"}},
		{"sort=password&order=sideways", PaginationParams{Page: 1, PageSize: DefaultPageSize, Sort: "date", Order: "asc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := GetPaginationParams(paginationContext(tt.query), "date", "asc")
			if *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestSkipNeverNegative(t *testing.T) {
	params := GetPaginationParams(paginationContext("page=9223372036854775807&page_size=100"), "date", "asc")

	if got, want := params.GetSkip(), int64(MaxPage-1)*MaxPageSize; got != want {
		t.Errorf("skip = %d, want %d", got, want)
	}
	if skip := *params.GetSortOptions().Skip; skip < 0 {
		t.Errorf("find skip = %d", skip)
	}
}

func TestCreatePaginationMeta(t *testing.T) {
	meta := CreatePaginationMeta(&PaginationParams{Page: 2, PageSize: 10}, 25)

	if meta.TotalPages != 3 || !meta.HasNext || !meta.HasPrevious {
		t.Fatalf("meta = %+v", meta)
	}
	if *meta.NextPage != 3 || *meta.PreviousPage != 1 {
		t.Errorf("next/prev = %d/%d", *meta.NextPage, *meta.PreviousPage)
	}
}

func TestSearchFilterEscapesRegex(t *testing.T) {
	filter := SearchFilter("a.b", []string{"name"})

	or := filter["$or"].([]bson.M)
	cond := or[0]["name"].(bson.M)
	if cond["$regex"] != `a\.b` {
		t.Errorf("regex = %v", cond["$regex"])
	}
	if len(SearchFilter("", []string{"name"})) != 0 {
		t.Error("empty query should produce an empty filter")
	}
}
