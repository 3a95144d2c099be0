package dto

import (
	"time"

	"leadtrack/internal/core/types"
	"leadtrack/internal/domain/entries"
	"leadtrack/internal/domain/settings"
	"leadtrack/internal/domain/yield"
)

// Entry entities carry json tags and fixed-point types that marshal as
// decimal strings, so they go out as-is. The request side still needs
// dedicated shapes: batches are appended through the entity builders so
// yields and SKUs freeze at write time.

// entryHeader holds the fields common to every append request.
type entryHeader struct {
	Timestamp *time.Time `json:"timestamp"`
	Comment   string     `json:"comment"`
}

func (h *entryHeader) apply(ts *time.Time, comment *string) {
	if h.Timestamp != nil {
		*ts = h.Timestamp.UTC()
	}
	*comment = h.Comment
}

// --- Refining ---

// RefiningBatchRequest is one ingot run.
type RefiningBatchRequest struct {
	InputSource     string         `json:"inputSource"`
	SBPercentage    *types.Percent `json:"sbPercentage"`
	LeadIngotKg     types.Kg       `json:"leadIngotKg"`
	LeadIngotPieces int64          `json:"leadIngotPieces"`
	InitialDrossKg  types.Kg       `json:"initialDrossKg"`
	SecondDrossKg   types.Kg       `json:"secondDrossKg"`
	ThirdDrossKg    types.Kg       `json:"thirdDrossKg"`
	CuDrossKg       types.Kg       `json:"cuDrossKg"`
	SnDrossKg       types.Kg       `json:"snDrossKg"`
	SbDrossKg       types.Kg       `json:"sbDrossKg"`
	PureLeadKg      types.Kg       `json:"pureLeadKg"`
	PureLeadPieces  int64          `json:"pureLeadPieces"`
}

// AppendRefiningRequest creates a refining entry.
type AppendRefiningRequest struct {
	entryHeader
	Batches []RefiningBatchRequest `json:"batches" binding:"required,min=1"`
}

// ToEntry builds the domain entry for the acting account.
func (r *AppendRefiningRequest) ToEntry(userID, userName string) *entries.RefiningEntry {
	e := entries.NewRefiningEntry(userID, userName)
	r.apply(&e.Timestamp, &e.Comment)
	for _, b := range r.Batches {
		e.AddBatch(entries.RefiningBatch{
			InputSource:     entries.ParseInputSource(b.InputSource),
			SBPercentage:    b.SBPercentage,
			LeadIngotKg:     b.LeadIngotKg,
			LeadIngotPieces: b.LeadIngotPieces,
			InitialDrossKg:  b.InitialDrossKg,
			SecondDrossKg:   b.SecondDrossKg,
			ThirdDrossKg:    b.ThirdDrossKg,
			CuDrossKg:       b.CuDrossKg,
			SnDrossKg:       b.SnDrossKg,
			SbDrossKg:       b.SbDrossKg,
			PureLeadKg:      b.PureLeadKg,
			PureLeadPieces:  b.PureLeadPieces,
		})
	}
	return e
}

// --- Recycling ---

// RecyclingBatchRequest is one battery lot.
type RecyclingBatchRequest struct {
	BatteryType yield.BatteryType `json:"batteryType" binding:"required"`
	BatteryKg   types.Kg          `json:"batteryKg"`
}

// AppendRecyclingRequest creates a recycling entry.
type AppendRecyclingRequest struct {
	entryHeader
	Batches []RecyclingBatchRequest `json:"batches" binding:"required,min=1"`
}

// ToEntry builds the domain entry, freezing yields from the snapshot.
func (r *AppendRecyclingRequest) ToEntry(userID, userName string, snapshot settings.RecoverySettings) (*entries.RecyclingEntry, error) {
	e := entries.NewRecyclingEntry(userID, userName)
	r.apply(&e.Timestamp, &e.Comment)
	for _, b := range r.Batches {
		if err := e.AddBatch(snapshot, b.BatteryType, b.BatteryKg); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// --- Dross ---

// DrossBatchRequest is one dross lot sent for recovery.
type DrossBatchRequest struct {
	DrossType           string   `json:"drossType"`
	QuantitySentKg      types.Kg `json:"quantitySentKg"`
	HighLeadRecoveredKg types.Kg `json:"highLeadRecoveredKg"`
}

// AppendDrossRequest creates a dross entry.
type AppendDrossRequest struct {
	entryHeader
	Batches []DrossBatchRequest `json:"batches" binding:"required,min=1"`
}

// ToEntry builds the domain entry.
func (r *AppendDrossRequest) ToEntry(userID, userName string) *entries.DrossEntry {
	e := entries.NewDrossEntry(userID, userName)
	r.apply(&e.Timestamp, &e.Comment)
	for _, b := range r.Batches {
		e.AddBatch(entries.DrossBatch{
			DrossType:           b.DrossType,
			QuantitySentKg:      b.QuantitySentKg,
			HighLeadRecoveredKg: b.HighLeadRecoveredKg,
		})
	}
	return e
}

// RecordRecoveryRequest fills in the recovered weight for one batch.
type RecordRecoveryRequest struct {
	BatchID     string `json:"batchId" binding:"required,uuid"`
	RecoveredKg string `json:"recoveredKg" binding:"required"`
}

// --- RML purchase / received ---

// RMLBatchRequest is one remelted-lead lot.
type RMLBatchRequest struct {
	QuantityKg   types.Kg      `json:"quantityKg"`
	Pieces       int64         `json:"pieces"`
	SBPercentage types.Percent `json:"sbPercentage"`
	Remarks      string        `json:"remarks"`

	// SKU records lot provenance on received entries; purchases
	// resolve theirs from the supplier, grade and date.
	SKU string `json:"sku"`
}

// AppendRMLPurchaseRequest creates a purchase entry.
type AppendRMLPurchaseRequest struct {
	entryHeader
	Batches []RMLBatchRequest `json:"batches" binding:"required,min=1"`
}

// ToEntry builds the domain entry. SKUs resolve from the entry date.
func (r *AppendRMLPurchaseRequest) ToEntry(userID, userName string) *entries.RMLPurchaseEntry {
	e := entries.NewRMLPurchaseEntry(userID, userName)
	r.apply(&e.Timestamp, &e.Comment)
	for _, b := range r.Batches {
		e.AddBatch(entries.RMLBatch{
			QuantityKg:   b.QuantityKg,
			Pieces:       b.Pieces,
			SBPercentage: b.SBPercentage,
			Remarks:      b.Remarks,
		})
	}
	return e
}

// AppendRMLReceivedRequest creates a received entry.
type AppendRMLReceivedRequest struct {
	entryHeader
	Batches []RMLBatchRequest `json:"batches" binding:"required,min=1"`
}

// ToEntry builds the domain entry.
func (r *AppendRMLReceivedRequest) ToEntry(userID, userName string) *entries.RMLReceivedEntry {
	e := entries.NewRMLReceivedEntry(userID, userName)
	r.apply(&e.Timestamp, &e.Comment)
	for _, b := range r.Batches {
		e.AddBatch(entries.RMLBatch{
			QuantityKg:   b.QuantityKg,
			Pieces:       b.Pieces,
			SBPercentage: b.SBPercentage,
			Remarks:      b.Remarks,
			SKU:          b.SKU,
		})
	}
	return e
}

// --- Sale ---

// AppendSaleRequest creates a sale entry.
type AppendSaleRequest struct {
	entryHeader
	PartyName  string   `json:"partyName" binding:"required"`
	SKUType    string   `json:"skuType"`
	QuantityKg types.Kg `json:"quantityKg"`
	Pieces     int64    `json:"pieces"`
}

// ToEntry builds the domain entry.
func (r *AppendSaleRequest) ToEntry(userID, userName string) *entries.SaleEntry {
	e := entries.NewSaleEntry(userID, userName)
	r.apply(&e.Timestamp, &e.Comment)
	e.PartyName = r.PartyName
	if r.SKUType != "" {
		e.SKUType = r.SKUType
	}
	e.QuantityKg = r.QuantityKg
	e.Pieces = r.Pieces
	return e
}
