// Package domain contains the core entities of the application and their
// validation rules. Domain types carry no persistence or transport concerns;
// those live in the store and api packages respectively.
package domain
