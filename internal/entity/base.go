package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"
)

type Base struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type Map map[string]any

func (m *Map) Scan(value any) error {
	switch t := value.(type) {
	case string:
		return json.Unmarshal([]byte(t), m)
	case []byte:
		return json.Unmarshal(t, m)
	default:
		return fmt.Errorf("cannot scan invalid data type %T", value)
	}
}

func (m Map) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// BigInt is an arbitrary-precision non-negative integer stored as its decimal representation.
type BigInt struct {
	v *big.Int
}

func NewBigInt(v *big.Int) BigInt {
	if v == nil {
		return BigInt{v: new(big.Int)}
	}

	return BigInt{v: new(big.Int).Set(v)}
}

// Int returns a copy of the value, the zero value of BigInt is 0.
func (b BigInt) Int() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(b.v)
}

func (b BigInt) String() string {
	return b.Int().String()
}

func (b *BigInt) Scan(value any) error {
	var s string
	switch t := value.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	case int64:
		b.v = big.NewInt(t)
		return nil
	default:
		return fmt.Errorf("cannot scan invalid data type %T", value)
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid big integer %q", s)
	}

	b.v = v
	return nil
}

func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

func (BigInt) GormDataType() string {
	return "varchar(80)"
}
