package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"regharvest/internal/log"
)

// selectRegionExpr picks the option whose visible text equals the
// wanted region in whichever select element carries it, firing a
// change event so the client-side table reacts.
const selectRegionExpr = `(() => {
	const want = %s;
	for (const sel of document.querySelectorAll('select')) {
		for (const opt of sel.options) {
			if (opt.textContent.trim().toUpperCase() === want.toUpperCase()) {
				sel.value = opt.value;
				sel.dispatchEvent(new Event('change', { bubbles: true }));
				return true;
			}
		}
	}
	return false;
})()`

// clickSearchExpr clicks the first visible control that looks like a
// search/filter/apply button.
const clickSearchExpr = `(() => {
	const words = ['buscar', 'filtrar', 'aplicar'];
	const controls = document.querySelectorAll('button, input[type="submit"]');
	for (const c of controls) {
		const label = ((c.textContent || '') + ' ' + (c.value || '')).trim().toLowerCase();
		if (c.offsetParent !== null && words.some(w => label.includes(w))) {
			c.click();
			return true;
		}
	}
	return false;
})()`

// TriggerSearch performs the interaction that makes the page fire its
// listing request: open the search page, select the region filter,
// click search. Used as the interaction inside a capture window.
func (p *Page) TriggerSearch(searchURL, region string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := p.Navigate(ctx, searchURL); err != nil {
			return err
		}

		regionJSON, _ := json.Marshal(region)
		var selected bool
		if err := p.Evaluate(ctx, fmt.Sprintf(selectRegionExpr, regionJSON), &selected); err != nil {
			return fmt.Errorf("select region: %w", err)
		}
		if !selected {
			return fmt.Errorf("region %q not present in any filter", region)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(600 * time.Millisecond):
		}

		var clicked bool
		if err := p.Evaluate(ctx, clickSearchExpr, &clicked); err != nil {
			return fmt.Errorf("click search: %w", err)
		}
		// Some deployments fire the listing call on the change event
		// alone, so a missing button is not fatal.
		log.L().Debug().Bool("clicked", clicked).Str("region", region).Msg("search triggered")
		return nil
	}
}
