package postgres

import (
	"github.com/shopsphere/payments-core/internal/domain"
)

func toOrderModel(o *domain.Order) OrderModel {
	return OrderModel{
		ID:              o.ID,
		Number:          o.Number,
		UserID:          o.UserID,
		AmountCents:     o.AmountCents,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		OrderStatus:     string(o.OrderStatus),
		AuthorizationID: o.AuthorizationID,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		DeliveryDate:    o.DeliveryDate,
		ShipName:        o.Shipping.Name,
		ShipLine1:       o.Shipping.Line1,
		ShipCity:        o.Shipping.City,
		ShipPostalCode:  o.Shipping.PostalCode,
		ShipCountry:     o.Shipping.Country,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderDomain(m OrderModel) *domain.Order {
	return &domain.Order{
		ID:              m.ID,
		Number:          m.Number,
		UserID:          m.UserID,
		AmountCents:     m.AmountCents,
		PaymentMethod:   domain.PaymentMethod(m.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(m.PaymentStatus),
		OrderStatus:     domain.OrderStatus(m.OrderStatus),
		AuthorizationID: m.AuthorizationID,
		IsPaid:          m.IsPaid,
		PaidAt:          m.PaidAt,
		DeliveryDate:    m.DeliveryDate,
		Shipping: domain.Shipping{
			Name:       m.ShipName,
			Line1:      m.ShipLine1,
			City:       m.ShipCity,
			PostalCode: m.ShipPostalCode,
			Country:    m.ShipCountry,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toUserDomain(m UserModel) *domain.User {
	u := &domain.User{
		ID:    m.ID,
		Email: m.Email,
		Name:  m.Name,
	}
	if m.GatewayCustomerID != nil {
		u.GatewayCustomerID = *m.GatewayCustomerID
	}
	return u
}
