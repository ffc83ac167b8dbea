package utils

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/samber/lo"
)

// GetStr returns the string at (col, rowIdx), or "" when the column is
// missing or the cell is NaN.
func GetStr(col string, rowIdx int, df *dataframe.DataFrame) string {
	if df == nil {
		return ""
	}

	if lo.Contains(df.Names(), col) {
		elem := df.Col(col).Elem(rowIdx)
		if elem.IsNA() {
			return ""
		}
		return elem.String()
	}
	return ""
}

func GetInt(col string, rowIdx int, df *dataframe.DataFrame) int {
	if df == nil {
		return 0
	}
	if lo.Contains(df.Names(), col) {
		val, err := df.Col(col).Elem(rowIdx).Int()
		if err != nil {
			return 0
		}
		return val
	}
	return 0
}

func GetBool(col string, rowIdx int, df *dataframe.DataFrame) bool {
	if df == nil {
		return false
	}
	if lo.Contains(df.Names(), col) {
		val, err := df.Col(col).Elem(rowIdx).Bool()
		if err != nil {
			return false
		}
		return val
	}
	return false
}

// HasColumn reports whether df carries the named column.
func HasColumn(df *dataframe.DataFrame, col string) bool {
	return df != nil && lo.Contains(df.Names(), col)
}
