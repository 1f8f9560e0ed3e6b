// Package instagram knows the shape of Instagram's web pages.
//
// This package includes:
//   - URL builders for login, logout and profile pages
//   - Profile link canonicalization used to deduplicate followers
//   - The default page locators, overridable from configuration
//
// Example usage:
//
//	sel := instagram.DefaultSelectors()
//	if ref, ok := instagram.CanonicalProfileURL("/some.handle/"); ok {
//	    // ref == "https://www.instagram.com/some.handle/"
//	}
package instagram
