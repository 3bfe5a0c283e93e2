package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// ErrNoElement is returned by Locate when neither locator matches.
var ErrNoElement = errors.New("browser: no element matches")

// Tab is one stealth page navigated to a URL.
type Tab struct {
	Page *rod.Page
	URL  string
}

// OpenTab opens a stealth tab on the managed browser, applies resource
// blocking and navigates to pageURL. A load that does not settle within the
// navigation timeout is logged and the tab is still returned.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b, err := mgr.Browser(ctx)
	if err != nil {
		return nil, err
	}
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		applyResourceBlocking(page, mgr.cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.WarnContext(ctx, "browser: wait load timeout", "url", pageURL, "error", err)
	}
	return &Tab{Page: page, URL: pageURL}, nil
}

// HTML returns the serialized document.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	h, err := t.Page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get html: %w", err)
	}
	return h, nil
}

// Title returns the document title.
func (t *Tab) Title(ctx context.Context) (string, error) {
	info, err := t.Page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("browser: page info: %w", err)
	}
	return info.Title, nil
}

// Walk runs the in-page walker and returns the snapshot JSON.
func (t *Tab) Walk(ctx context.Context, withXPath bool) ([]byte, error) {
	res, err := t.Page.Context(ctx).Eval(walkerJS, map[string]bool{"xpath": withXPath})
	if err != nil {
		return nil, fmt.Errorf("browser: walk dom: %w", err)
	}
	return []byte(res.Value.Str()), nil
}

// Locate returns the live element for a selector, descending the iframe
// chain first. The XPath is tried when the selector matches nothing.
func Locate(ctx context.Context, page *rod.Page, frames []string, selector, xpath string) (*rod.Element, error) {
	p := page.Context(ctx)
	for _, fsel := range frames {
		ok, host, err := p.Has(fsel)
		if err != nil {
			return nil, fmt.Errorf("browser: frame %q: %w", fsel, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: frame %q", ErrNoElement, fsel)
		}
		if p, err = host.Frame(); err != nil {
			return nil, fmt.Errorf("browser: enter frame %q: %w", fsel, err)
		}
	}
	if selector != "" {
		ok, el, err := p.Has(selector)
		if err != nil {
			return nil, fmt.Errorf("browser: query %q: %w", selector, err)
		}
		if ok {
			return el, nil
		}
	}
	if xpath != "" {
		ok, el, err := p.HasX(xpath)
		if err != nil {
			return nil, fmt.Errorf("browser: query %q: %w", xpath, err)
		}
		if ok {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: %q %q", ErrNoElement, selector, xpath)
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
