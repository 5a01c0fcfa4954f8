// internal/render/cdp.go
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// cdpOpTimeout bounds each individual style operation against the browser.
const cdpOpTimeout = 5 * time.Second

// CDPRenderer is an adapter that implements the Renderer interface against a
// live Chrome DevTools Protocol session. Elements are addressed by a
// data-marquee-id attribute stamped onto each created block, which keeps the
// Handle space stable across DOM mutations the page itself may perform.
type CDPRenderer struct {
	ctx      context.Context // session master context
	logger   *zap.Logger
	next     Handle
	selector map[Handle]string
}

var _ Renderer = (*CDPRenderer)(nil)

// NewCDPRenderer wraps an established chromedp context. The provided
// containerSelector identifies the marquee container on the page; it is
// registered as the first handle.
func NewCDPRenderer(ctx context.Context, logger *zap.Logger, containerSelector string) (*CDPRenderer, Handle) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &CDPRenderer{
		ctx:      ctx,
		logger:   logger.With(zap.String("component", "cdp_renderer")),
		selector: make(map[Handle]string),
	}
	r.next++
	container := r.next
	r.selector[container] = containerSelector
	return r, container
}

func (r *CDPRenderer) run(actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(r.ctx, cdpOpTimeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

func (r *CDPRenderer) CreateBlock(container Handle, items []string) (Handle, error) {
	parent, ok := r.selector[container]
	if !ok {
		return NoHandle, fmt.Errorf("cdp: unknown container handle %d", container)
	}

	r.next++
	h := r.next
	id := fmt.Sprintf("marquee-block-%d", h)

	var escaped []string
	for _, item := range items {
		escaped = append(escaped, strings.ReplaceAll(strings.ReplaceAll(item, `\`, `\\`), `'`, `\'`))
	}
	script := fmt.Sprintf(`(() => {
		const parent = document.querySelector('%s');
		if (!parent) return false;
		const block = document.createElement('div');
		block.setAttribute('data-marquee-id', '%s');
		block.style.position = 'absolute';
		block.style.whiteSpace = 'nowrap';
		['%s'].forEach(text => {
			const span = document.createElement('span');
			span.textContent = text;
			block.appendChild(span);
		});
		parent.appendChild(block);
		return true;
	})()`, parent, id, strings.Join(escaped, `','`))

	var created bool
	if err := r.run(chromedp.Evaluate(script, &created)); err != nil {
		return NoHandle, fmt.Errorf("cdp: create block failed: %w", err)
	}
	if !created {
		return NoHandle, fmt.Errorf("cdp: container %q not found on page", parent)
	}

	r.selector[h] = fmt.Sprintf(`[data-marquee-id=%q]`, id)
	r.logger.Debug("Created content block", zap.Int64("handle", int64(h)), zap.Int("items", len(items)))
	return h, nil
}

func (r *CDPRenderer) setStyle(h Handle, prop, value string) error {
	sel, ok := r.selector[h]
	if !ok {
		return fmt.Errorf("cdp: unknown handle %d", h)
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector('%s');
		if (!el) return false;
		el.style.setProperty('%s', '%s');
		return true;
	})()`, sel, prop, value)

	var applied bool
	if err := r.run(chromedp.Evaluate(script, &applied)); err != nil {
		return fmt.Errorf("cdp: style write failed for %q: %w", sel, err)
	}
	if !applied {
		return fmt.Errorf("cdp: element %q not found on page", sel)
	}
	return nil
}

func (r *CDPRenderer) SetOffset(h Handle, prop string, px float64) error {
	return r.setStyle(h, prop, fmt.Sprintf("%gpx", px))
}

func (r *CDPRenderer) ApplyTransform(h Handle, value string) error {
	return r.setStyle(h, "transform", value)
}

func (r *CDPRenderer) ReadTransform(h Handle) (string, error) {
	sel, ok := r.selector[h]
	if !ok {
		return "", fmt.Errorf("cdp: unknown handle %d", h)
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector('%s');
		if (!el) return null;
		return el.style.transform || '';
	})()`, sel)

	var value string
	err := r.run(chromedp.Evaluate(script, &value, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true)
	}))
	if err != nil {
		return "", fmt.Errorf("cdp: transform read failed for %q: %w", sel, err)
	}
	return value, nil
}

func (r *CDPRenderer) Release(h Handle) {
	sel, ok := r.selector[h]
	if !ok {
		return
	}
	delete(r.selector, h)
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector('%s');
		if (el && el.parentNode) el.parentNode.removeChild(el);
		return true;
	})()`, sel)
	var removed bool
	if err := r.run(chromedp.Evaluate(script, &removed)); err != nil {
		r.logger.Debug("Release failed, element may already be gone", zap.String("selector", sel), zap.Error(err))
	}
}
