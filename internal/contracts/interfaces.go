package contracts

import (
	"context"
	"io"
)

// ContractSource delivers the contracts table (file, database, request body)
// ⭐ SSOT: 계약 테이블 입력 인터페이스
type ContractSource interface {
	Contracts(ctx context.Context) ([]ContractRow, error)
}

// PriceSource delivers the prices table
// ⭐ SSOT: 가격 테이블 입력 인터페이스
type PriceSource interface {
	Prices(ctx context.Context) ([]PriceRow, error)
}

// ReportWriter serializes a finished report
// ⭐ SSOT: 리포트 출력 인터페이스
type ReportWriter interface {
	Write(w io.Writer, report *Report) error
}
