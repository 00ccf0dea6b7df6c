package handler

import (
	"github.com/parceltrack/delivery-platform/internal/core/domain"
	"github.com/parceltrack/delivery-platform/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createShipmentRequest, senderEmail string) ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		Sender:        toPartyInput(req.Sender),
		Receiver:      toPartyInput(req.Receiver),
		Origin:        req.Origin,
		Destination:   req.Destination,
		Package:       toPackageInput(req.Package),
		PaymentMethod: req.PaymentMethod,
		SenderEmail:   senderEmail,
	}
}

func toPartyInput(p partyRequest) ports.PartyInput {
	return ports.PartyInput{
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
	}
}

func toPackageInput(p packageRequest) ports.PackageInput {
	return ports.PackageInput{
		Type:     p.Type,
		WeightKg: p.WeightKg,
		Dimensions: ports.DimensionsInput{
			LengthCm: p.Dimensions.LengthCm,
			WidthCm:  p.Dimensions.WidthCm,
			HeightCm: p.Dimensions.HeightCm,
		},
		DeclaredValue: p.DeclaredValue,
	}
}

// --- Domain → HTTP response ---

func toShipmentResponse(s *domain.Shipment) shipmentResponse {
	return shipmentResponse{
		TrackingID:      s.TrackingID,
		Status:          string(s.Status),
		CurrentLocation: s.CurrentLocation,
		Sender:          toPartyResponse(s.Sender),
		Receiver:        toPartyResponse(s.Receiver),
		Origin:          s.Origin,
		Destination:     s.Destination,
		Package: packageResponse{
			Type:     string(s.Package.Type),
			WeightKg: s.Package.WeightKg,
			Dimensions: dimensionsResponse{
				LengthCm: s.Package.Dimensions.LengthCm,
				WidthCm:  s.Package.Dimensions.WidthCm,
				HeightCm: s.Package.Dimensions.HeightCm,
			},
			DeclaredValue: s.Package.DeclaredValue,
		},
		AssignedPartner: s.AssignedPartner,
		Revenue:         s.Revenue,
		Payment: paymentResponse{
			Method:          string(s.Payment.Method),
			Status:          string(s.Payment.Status),
			Amount:          s.Payment.Amount,
			PaidAt:          s.Payment.PaidAt,
			RefundRequestID: s.Payment.RefundRequestID,
			RefundReason:    s.Payment.RefundReason,
			RefundedAt:      s.Payment.RefundedAt,
		},
		PickedUpAt:  s.PickedUpAt,
		DeliveredAt: s.DeliveredAt,
		History:     toHistoryResponse(s.StatusHistory),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func toPartyResponse(p domain.Party) partyResponse {
	return partyResponse{
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Address: p.Address,
	}
}

func toHistoryResponse(items []domain.StatusAudit) []historyItemResponse {
	out := make([]historyItemResponse, len(items))
	for i, item := range items {
		out[i] = historyItemResponse{
			Status:      string(item.Status),
			Location:    item.Location,
			Timestamp:   item.Timestamp.UTC(),
			Description: item.Note,
			UpdatedBy:   item.UpdatedBy,
		}
	}
	return out
}

func toListResponse(r *ports.ListShipmentsResult) listShipmentsResponse {
	items := make([]shipmentSummaryResponse, len(r.Items))
	for i, s := range r.Items {
		items[i] = toSummaryResponse(s)
	}
	return listShipmentsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toSummaryResponse(s *domain.Shipment) shipmentSummaryResponse {
	return shipmentSummaryResponse{
		TrackingID:      s.TrackingID,
		Status:          string(s.Status),
		CurrentLocation: s.CurrentLocation,
		Sender:          toPartyResponse(s.Sender),
		Receiver:        toPartyResponse(s.Receiver),
		Origin:          s.Origin,
		Destination:     s.Destination,
		Revenue:         s.Revenue,
		PaymentStatus:   string(s.Payment.Status),
		AssignedPartner: s.AssignedPartner,
		CreatedAt:       s.CreatedAt.UTC(),
	}
}
