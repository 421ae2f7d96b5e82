package main

import (
	"fmt"
	"strconv"
	"strings"
)

// maxListed bounds the length of an expanded page list.  No real document
// comes close, and a typo like "1-2000000000" must not exhaust memory.
const maxListed = 100_000

// parsePages parses a page list such as "1,3,5-7" into page numbers, in the
// order given.  A descending range such as "7-5" lists its pages in
// descending order.
func parsePages(s string) (pages []int, err error) {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		from, to, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("invalid page list %q: %q is not a page number", s, from)
		}
		if !isRange {
			if len(pages) >= maxListed {
				return nil, fmt.Errorf("invalid page list %q: too many pages", s)
			}
			pages = append(pages, first)
			continue
		}
		last, err := strconv.Atoi(to)
		if err != nil {
			return nil, fmt.Errorf("invalid page list %q: %q is not a page number", s, to)
		}
		step, span := 1, last-first
		if last < first {
			step, span = -1, first-last
		}
		if span >= maxListed-len(pages) {
			return nil, fmt.Errorf("invalid page list %q: range %s lists too many pages", s, part)
		}
		for p := first; p != last+step; p += step {
			pages = append(pages, p)
		}
	}
	return pages, nil
}
