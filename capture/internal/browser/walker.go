package browser

// walkerJS serializes the live DOM into {map, root}, rooted at the document
// element. Ids are assigned in pre-order so a parent always precedes its
// children. Whitespace-only text is dropped. Script, style, noscript and
// template elements are kept as invisible leaves so that element positions
// match the live document. A same-origin iframe document is walked from its
// own document element as the child of its host, and open shadow roots
// follow the light children. With opts.xpath each element carries its
// absolute XPath, relative to its frame.
const walkerJS = `(opts) => {
	const map = {};
	let next = 0;
	const skipped = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE']);

	const visible = (el) => {
		if (typeof el.checkVisibility === 'function') {
			return el.checkVisibility({checkOpacity: true, checkVisibilityCSS: true});
		}
		const s = window.getComputedStyle(el);
		if (s.display === 'none' || s.visibility === 'hidden' || s.opacity === '0') return false;
		return el.getClientRects().length > 0;
	};

	const xpathOf = (el) => {
		const parts = [];
		for (let n = el; n && n.nodeType === Node.ELEMENT_NODE; n = n.parentNode) {
			const tag = n.tagName.toLowerCase();
			if (tag === 'html' || tag === 'head' || tag === 'body') {
				parts.unshift(tag);
				continue;
			}
			let i = 1;
			for (let s = n.previousElementSibling; s; s = s.previousElementSibling) {
				if (s.tagName === n.tagName) i++;
			}
			parts.unshift(tag + '[' + i + ']');
		}
		return '/' + parts.join('/');
	};

	const pseudo = (el, which) => {
		const c = window.getComputedStyle(el, which).content;
		if (!c || c === 'none' || c === 'normal') return null;
		return {content: c.replace(/^["']|["']$/g, '')};
	};

	const walk = (node, parentVisible) => {
		if (node.nodeType === Node.TEXT_NODE) {
			const text = node.textContent.replace(/\s+/g, ' ').trim();
			if (!text) return null;
			const id = next++;
			map[id] = {type: 'TEXT_NODE', tagName: '', text: text, isVisible: parentVisible};
			return id;
		}
		if (node.nodeType !== Node.ELEMENT_NODE) return null;

		const id = next++;
		const attributes = {};
		for (const a of node.attributes) attributes[a.name] = a.value;
		if (skipped.has(node.tagName)) {
			map[id] = {type: 'ELEMENT_NODE', tagName: node.tagName.toLowerCase(), attributes: attributes, children: [], isVisible: false};
			if (opts && opts.xpath) map[id].xpath = xpathOf(node);
			return id;
		}
		const isVisible = parentVisible && visible(node);
		const d = {type: 'ELEMENT_NODE', tagName: node.tagName.toLowerCase(), attributes: attributes, children: [], isVisible: isVisible};
		if (opts && opts.xpath) d.xpath = xpathOf(node);
		const before = pseudo(node, '::before');
		const after = pseudo(node, '::after');
		if (before || after) {
			d.pseudoElements = {};
			if (before) d.pseudoElements.before = before;
			if (after) d.pseudoElements.after = after;
		}
		if (node.tagName === 'INPUT' || node.tagName === 'TEXTAREA' || node.tagName === 'SELECT') {
			if (node.value) d.attributes.value = node.value;
		}
		map[id] = d;

		let kids = Array.from(node.childNodes);
		if (node.shadowRoot) kids = kids.concat(Array.from(node.shadowRoot.childNodes));
		if (node.tagName === 'IFRAME') {
			try {
				if (node.contentDocument && node.contentDocument.documentElement) kids = [node.contentDocument.documentElement];
			} catch (e) {}
		}
		for (const k of kids) {
			const cid = walk(k, isVisible);
			if (cid !== null) d.children.push(cid);
		}
		return id;
	};

	const root = walk(document.documentElement, true);
	return JSON.stringify({map: map, root: root});
}`
