// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts with ToDomain and
// a <Model>FromDomain constructor.
//
// Money columns are bigint minor units. An item reference is stored as the
// (item_kind, item_id) column pair.
package models
