package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockAliases maps config names to CDP resource types.
var blockAliases = map[string]string{
	"images":      "image",
	"fonts":       "font",
	"stylesheets": "stylesheet",
}

// blockSet normalizes configured names to lower-case CDP resource types.
func blockSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if alias, ok := blockAliases[t]; ok {
			t = alias
		}
		set[t] = true
	}
	return set
}

// applyResourceBlocking fails requests whose resource type is in types.
func applyResourceBlocking(page *rod.Page, types []string) {
	set := blockSet(types)
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if set[strings.ToLower(string(h.Request.Type()))] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}
