package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
	"github.com/Md-Rabbi-95/Khalab/internal/catalog"
	"github.com/Md-Rabbi-95/Khalab/internal/checkout"
	"github.com/Md-Rabbi-95/Khalab/internal/config"
	"github.com/Md-Rabbi-95/Khalab/internal/courier"
	"github.com/Md-Rabbi-95/Khalab/internal/delivery"
	"github.com/Md-Rabbi-95/Khalab/internal/handler"
	"github.com/Md-Rabbi-95/Khalab/internal/order"
)

// NewRouter wires repositories, services and handlers onto one mux.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config, notifier order.Notifier) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	catalogRepo := catalog.NewRepository(pool)
	cartRepo := cart.NewRepository(pool)
	cartSvc := cart.NewService(cartRepo, catalogRepo)

	resolver := delivery.NewResolver(delivery.NewRepository(pool))
	quoteSvc := checkout.NewService(cartSvc, resolver)

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo, cartSvc, resolver, notifier, cfg.Store.HomeDistrict)

	courierClient := courier.NewClient(cfg.Courier)
	courierSvc := courier.NewService(courier.NewRepository(pool), courierClient, orderRepo, orderSvc)

	cartHandler := handler.NewCartHandler(cartSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, quoteSvc)
	deliveryHandler := handler.NewDeliveryHandler(resolver)
	courierHandler := handler.NewCourierHandler(courierSvc)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.List)
		r.Post("/items", cartHandler.AddItem)
		r.Post("/items/{itemID}/decrement", cartHandler.RemoveOne)
		r.Delete("/items/{itemID}", cartHandler.RemoveItem)
		r.Post("/buy-now", cartHandler.BuyNow)
		r.Post("/adopt", cartHandler.Adopt)
	})

	r.Post("/checkout/quote", orderHandler.Quote)
	r.Post("/orders", orderHandler.Finalize)
	r.Get("/orders/complete", orderHandler.Complete)
	r.Get("/orders/{orderNumber}/payment-status", orderHandler.PaymentStatus)

	r.Get("/delivery-charges/resolve", deliveryHandler.ChargeFor)

	r.Route("/admin", func(r chi.Router) {
		r.Patch("/orders/{orderID}/status", orderHandler.UpdateStatus)
		r.Put("/orders/{orderID}/payment-status", orderHandler.SetPaymentStatus)
		r.Post("/payments/approve", orderHandler.ApprovePayments)
		r.Post("/payments/reject", orderHandler.RejectPayments)

		r.Get("/delivery-charges", deliveryHandler.List)
		r.Put("/delivery-charges", deliveryHandler.Upsert)

		r.Post("/orders/{orderID}/parcel", courierHandler.CreateParcel)
		r.Get("/parcels", courierHandler.List)
		r.Post("/parcels/{parcelID}/track", courierHandler.Track)
		r.Post("/parcels/{parcelID}/cancel", courierHandler.Cancel)

		r.Delete("/carts/stale", cartHandler.SweepStale)
	})

	return r
}
