package browser

// In-page scripts for the target's current markup. Selector inventories
// are duplicated from the extract package on purpose: the page side and
// the parsing side drift independently when the target ships changes.

// stealthInitScript runs before any page script and trims the most common
// automation tells.
const stealthInitScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3] });
window.chrome = window.chrome || { runtime: {} };
`

// openReviewsTabJS clicks the reviews tab. Tab markup varies, so buttons
// are matched by label first, then by position.
const openReviewsTabJS = `
() => {
	const candidates = document.querySelectorAll(
		'button[role="tab"], [role="tablist"] button, .hh2c6, button[aria-label]');
	for (const btn of candidates) {
		const label = ((btn.getAttribute('aria-label') || '') + ' ' +
			(btn.textContent || '')).toLowerCase();
		if (label.includes('review') && !label.includes('menu')) {
			btn.click();
			return true;
		}
	}
	const tabs = document.querySelectorAll('button[role="tab"]');
	if (tabs.length >= 3) { tabs[2].click(); return true; }
	if (tabs.length === 2) { tabs[1].click(); return true; }
	return false;
}
`

// businessNameJS reads the place heading.
const businessNameJS = `
() => {
	const heading = document.querySelector('h1');
	return heading ? heading.textContent.trim() : '';
}
`

// revealStepJS scrolls the review containers, expands up to a few
// truncated entries, and returns the number of visible reviews.
const revealStepJS = `
async () => {
	const scrollSelectors = ['.m6QErb', '[role="main"]', '.siAUzd'];
	let scrolled = false;
	for (const sel of scrollSelectors) {
		for (const el of document.querySelectorAll(sel)) {
			if (el.scrollHeight > el.clientHeight) {
				el.scrollTop = el.scrollHeight;
				scrolled = true;
			}
		}
		if (scrolled) break;
	}
	if (!scrolled) {
		window.scrollTo(0, document.body.scrollHeight);
	}

	let expanded = 0;
	for (const btn of document.querySelectorAll('button.w8nwRe, .w8nwRe')) {
		if (expanded >= 3) break;
		try { btn.click(); expanded++; } catch (e) {}
	}
	if (expanded < 3) {
		for (const btn of document.querySelectorAll('button[aria-label]')) {
			if (expanded >= 3) break;
			const label = (btn.getAttribute('aria-label') || '').toLowerCase();
			if (label.includes('more')) {
				try { btn.click(); expanded++; } catch (e) {}
			}
		}
	}

	const countSelectors = ['[data-review-id]', '.jftiEf', '.MyEned'];
	let visible = 0;
	for (const sel of countSelectors) {
		visible = Math.max(visible, document.querySelectorAll(sel).length);
	}
	return visible;
}
`

// captureRegionJS returns the markup of the container that actually holds
// reviews, never the whole page.
const captureRegionJS = `
() => {
	const regionSelectors = ['.m6QErb', '[role="main"]', '.siAUzd'];
	for (const sel of regionSelectors) {
		for (const el of document.querySelectorAll(sel)) {
			if (el.querySelector('[data-review-id], .jftiEf, .MyEned')) {
				return el.outerHTML;
			}
		}
	}
	const main = document.querySelector('[role="main"]');
	return main ? main.outerHTML : '';
}
`

// userAgents is the identity pool for sessions without a configured
// override.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}
