// Package discovery ranks and selects published podcasts and episodes:
// trending, personalised recommendations, browse, search, featured, new
// releases and the home feed.
//
// Every operation only ever returns content whose status is published. The
// trending cache stores podcast ids only; ids read back from it are always
// re-resolved against the catalog, so podcasts unpublished after caching are
// dropped rather than served.
//
// The package is read-only. Its single side effect is populating the
// trending cache, an idempotent last-writer-wins overwrite with a TTL.
package discovery
