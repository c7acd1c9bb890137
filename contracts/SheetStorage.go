package contracts

import "errors"

type SheetStorage interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

var SheetNotFoundError = errors.New("sheet not found")
