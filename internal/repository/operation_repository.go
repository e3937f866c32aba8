package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rivadavia/grainops/internal/db"
	"github.com/rivadavia/grainops/internal/model"
)

type OperationRepository struct {
	db  *gorm.DB
	hub *changeHub
}

func NewOperationRepository(database *gorm.DB) *OperationRepository {
	return &OperationRepository{db: database, hub: newChangeHub()}
}

func (r *OperationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Operation, error) {
	var row db.OperationRow
	err := r.db.WithContext(ctx).
		Preload("Trucks", orderTrucks).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	op := operationFromRow(row)
	return &op, nil
}

func (r *OperationRepository) List(ctx context.Context, filter model.OperationFilter) ([]model.Operation, error) {
	query := r.db.WithContext(ctx).Model(&db.OperationRow{}).Preload("Trucks", orderTrucks)

	if filter.CompletedOnly {
		query = query.Where("status = ?", string(model.OperationStatusCompleted))
	} else if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if contact := strings.TrimSpace(filter.Contact); contact != "" {
		query = query.Where("(producer = ? OR buyer = ?)", contact, contact)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"(LOWER(producer) LIKE ? OR LOWER(buyer) LIKE ? OR LOWER(transporter) LIKE ? OR LOWER(cereal) LIKE ?)",
			like, like, like, like,
		)
	}
	if !filter.From.IsZero() {
		query = query.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("date <= ?", filter.To)
	}

	var rows []db.OperationRow
	if err := query.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	ops := make([]model.Operation, 0, len(rows))
	for _, row := range rows {
		ops = append(ops, operationFromRow(row))
	}
	return ops, nil
}

// Save upserts the operation and replaces its truck tickets in one transaction.
func (r *OperationRepository) Save(ctx context.Context, op model.Operation) (*model.Operation, error) {
	now := time.Now().UTC()
	op.Trucks = append([]model.TruckTicket(nil), op.Trucks...)
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	op.UpdatedAt = now
	for i := range op.Trucks {
		if op.Trucks[i].ID == uuid.Nil {
			op.Trucks[i].ID = uuid.New()
		}
		if op.Trucks[i].CreatedAt.IsZero() {
			op.Trucks[i].CreatedAt = now
		}
	}

	row := operationToRow(op)
	trucks := row.Trucks
	row.Trucks = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(&row).Error
		if err != nil {
			return err
		}
		if err := tx.Where("operation_id = ?", row.ID).Delete(&db.TruckTicketRow{}).Error; err != nil {
			return err
		}
		if len(trucks) > 0 {
			if err := tx.Create(&trucks).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved := op
	r.hub.publish(model.OperationEvent{
		Type:        model.OperationEventUpserted,
		OperationID: saved.ID,
		Operation:   &saved,
		At:          now,
	})
	return &saved, nil
}

func (r *OperationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("operation_id = ?", id).Delete(&db.TruckTicketRow{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&db.OperationRow{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.hub.publish(model.OperationEvent{
		Type:        model.OperationEventDeleted,
		OperationID: id,
		At:          time.Now().UTC(),
	})
	return nil
}

// Subscribe delivers change events until ctx is done; the channel is then closed.
func (r *OperationRepository) Subscribe(ctx context.Context) <-chan model.OperationEvent {
	return r.hub.subscribe(ctx)
}

// Stats aggregates the stored totals; cancelled operations are left out.
func (r *OperationRepository) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var row struct {
		TotalOperations    int64
		PendingOperations  int64
		TotalNetTonnes     float64
		TotalCommissionARS float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_operations,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_operations,
			COALESCE(SUM(net_tonnes), 0) AS total_net_tonnes,
			COALESCE(SUM(commission_ars), 0) AS total_commission_ars
		FROM operations
		WHERE status <> ?
	`, string(model.OperationStatusPending), string(model.OperationStatusCancelled)).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &model.DashboardStats{
		TotalOperations:    row.TotalOperations,
		PendingOperations:  row.PendingOperations,
		TotalNetTonnes:     row.TotalNetTonnes,
		TotalCommissionARS: row.TotalCommissionARS,
	}, nil
}

func orderTrucks(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC")
}

func operationToRow(op model.Operation) db.OperationRow {
	row := db.OperationRow{
		ID:               op.ID,
		Date:             op.Date,
		Producer:         op.Producer,
		Buyer:            op.Buyer,
		Transporter:      op.Transporter,
		Cereal:           op.Cereal,
		Status:           string(op.Status),
		Currency:         string(op.Currency),
		ExchangeRate:     op.ExchangeRate,
		ProducerPriceARS: op.ProducerPriceARS,
		BuyerPriceARS:    op.BuyerPriceARS,
		NetTonnes:        op.NetTonnes,
		TotalProducerARS: op.Totals.ProducerARS,
		TotalProducerUSD: op.Totals.ProducerUSD,
		TotalBuyerARS:    op.Totals.BuyerARS,
		TotalBuyerUSD:    op.Totals.BuyerUSD,
		CommissionARS:    op.Totals.CommissionARS,
		CommissionUSD:    op.Totals.CommissionUSD,
		Notes:            op.Notes,
		CreatedByUserID:  op.CreatedByUserID,
		CreatedAt:        op.CreatedAt,
		UpdatedAt:        op.UpdatedAt,
	}
	row.Trucks = make([]db.TruckTicketRow, 0, len(op.Trucks))
	for i, truck := range op.Trucks {
		row.Trucks = append(row.Trucks, db.TruckTicketRow{
			ID:            truck.ID,
			OperationID:   op.ID,
			Position:      i,
			LicensePlate:  truck.LicensePlate,
			Waybill:       truck.Waybill,
			GrossWeightKg: truck.GrossWeightKg,
			TareWeightKg:  truck.TareWeightKg,
			NetWeightKg:   truck.NetWeightKg,
			NetTonnes:     truck.NetTonnes,
			OCRRaw:        truck.OCRRaw,
			CreatedAt:     truck.CreatedAt,
		})
	}
	return row
}

func operationFromRow(row db.OperationRow) model.Operation {
	op := model.Operation{
		ID:               row.ID,
		Date:             row.Date,
		Producer:         row.Producer,
		Buyer:            row.Buyer,
		Transporter:      row.Transporter,
		Cereal:           row.Cereal,
		Status:           model.OperationStatus(row.Status),
		Currency:         model.Currency(row.Currency),
		ExchangeRate:     row.ExchangeRate,
		ProducerPriceARS: row.ProducerPriceARS,
		BuyerPriceARS:    row.BuyerPriceARS,
		NetTonnes:        row.NetTonnes,
		Totals: model.Totals{
			ProducerARS:   row.TotalProducerARS,
			ProducerUSD:   row.TotalProducerUSD,
			BuyerARS:      row.TotalBuyerARS,
			BuyerUSD:      row.TotalBuyerUSD,
			CommissionARS: row.CommissionARS,
			CommissionUSD: row.CommissionUSD,
		},
		Notes:           row.Notes,
		CreatedByUserID: row.CreatedByUserID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Trucks:          make([]model.TruckTicket, 0, len(row.Trucks)),
	}
	for _, truck := range row.Trucks {
		op.Trucks = append(op.Trucks, model.TruckTicket{
			ID:            truck.ID,
			LicensePlate:  truck.LicensePlate,
			Waybill:       truck.Waybill,
			GrossWeightKg: truck.GrossWeightKg,
			TareWeightKg:  truck.TareWeightKg,
			NetWeightKg:   truck.NetWeightKg,
			NetTonnes:     truck.NetTonnes,
			OCRRaw:        truck.OCRRaw,
			CreatedAt:     truck.CreatedAt,
		})
	}
	return op
}
