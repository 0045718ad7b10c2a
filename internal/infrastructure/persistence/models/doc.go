// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer carries no
// ORM tags.
//
// Every model offers ToDomain and FromDomain mappers. Repositories read and
// write models only and hand domain entities to their callers.
//
// Structure:
// - base.go: tenant scoped columns shared by every aggregate
// - loyalty.go: loyalty clients and the point transaction ledger
// - ordering.go: mesas, comandas and comanda items
// - identity.go: users, access groups and memberships
package models
