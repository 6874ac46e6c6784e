// Package theatre provides the content model and read-side projections for a
// theatre website: Productions (staged shows), Venues, Bylines (cast and
// crew), generic Pages, Media assets and navigation menus.
//
// It exposes a single Service interface configured with functional options.
// Persistence is delegated to a Repository (memory, Postgres and SQLite
// implementations live under repo/), media bytes to BlobStores (storage/),
// and site-wide settings such as the hero configuration and menu locations
// to a SettingsStore (settings/).
//
// Item Model
//
// Every entity is stored as a generic Item with a Kind, plus an ordered
// metadata multimap. Production, Venue, Byline and Page are typed projections
// over items. Extensible attributes (performance dates, venue and byline
// references, social links) live in metadata under the Meta* keys, which is
// what lets ConvertPageToProduction copy a page's metadata wholesale.
//
// References between entities are weak: they are not validated when written
// and a reference to a missing entity renders as absent when read.
package theatre
