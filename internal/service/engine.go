package service

import (
	"github.com/okhomenko/library-server/internal/logger"
	"github.com/okhomenko/library-server/internal/model"
)

// Engine bundles the catalog, identity, reservation, and reminder services
// over one set of stores and one transaction boundary. It is the handle a
// transport layer embeds.
type Engine struct {
	Users        *Users
	Inventory    *Inventory
	Reservations *Reservations
	Reminders    *Reminders
}

func NewEngine(
	bookStore model.BookStore,
	userStore model.UserStore,
	reservationStore model.ReservationStore,
	tx model.TxRunner,
	logger *logger.Logger,
) *Engine {
	users := NewUsers(userStore, logger)

	return &Engine{
		Users:        users,
		Inventory:    NewInventory(bookStore, logger),
		Reservations: NewReservations(bookStore, reservationStore, users, tx, logger),
		Reminders:    NewReminders(reservationStore, bookStore, userStore, logger),
	}
}
