package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/sealcheck/pkg/pagination"
)

var cfg = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantSearch string
	}{
		{"defaults", "", 1, 20, ""},
		{"explicit", "page=3&page_size=10", 3, 10, ""},
		{"clamped size", "page_size=500", 1, 100, ""},
		{"negative page", "page=-2", 1, 20, ""},
		{"search", "search=company", 1, 20, "company"},
		{"blank search dropped", "search=%20%20", 1, 20, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, cfg)

			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("page=%d size=%d, want page=%d size=%d", req.Page, req.PageSize, tt.wantPage, tt.wantSize)
			}
			got := ""
			if req.Search != nil {
				got = *req.Search
			}
			if got != tt.wantSearch {
				t.Errorf("search = %q, want %q", got, tt.wantSearch)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	req := pagination.PageRequest{Page: 3, PageSize: 25}
	if got := req.Offset(); got != 50 {
		t.Errorf("Offset() = %d, want 50", got)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		size      int
		wantPages int
	}{
		{"empty", 0, 20, 1},
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pagination.NewPageResult[int](nil, tt.total, 1, tt.size)
			if r.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", r.TotalPages, tt.wantPages)
			}
			if r.Data == nil {
				t.Error("Data is nil, want empty slice")
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	c := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := c.Finalize(nil); err == nil {
		t.Error("Finalize() accepted default_page_size above max_page_size")
	}
}

func TestConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("TEST_MAX_EXPORT", "500")

	c := pagination.Config{}
	if err := c.Finalize(&pagination.ConfigEnv{MaxExport: "TEST_MAX_EXPORT"}); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if c.DefaultPageSize != 20 || c.MaxPageSize != 100 || c.MaxExport != 500 {
		t.Errorf("config = %+v", c)
	}

	c.Merge(&pagination.Config{MaxPageSize: 50})
	if c.MaxPageSize != 50 || c.MaxExport != 500 {
		t.Errorf("Merge() = %+v", c)
	}

	low := pagination.Config{MaxExport: 10}
	if err := low.Finalize(nil); err == nil {
		t.Error("Finalize() accepted max_export below max_page_size")
	}
}
