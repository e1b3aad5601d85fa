package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/syncd/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileDownloaderStagesACopyAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "customers-acme.csv", "customer_profile,name\nCP-1,Rossi SRL\n")

	d := NewFileDownloader(dir)
	download := d.Download(types.SyncCustomers)

	userID := "acme"
	stagedPath, err := download(context.Background(), &userID)
	require.NoError(t, err)
	assert.NotEqual(t, d.Path(types.SyncCustomers, &userID), stagedPath)

	data, err := os.ReadFile(stagedPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Rossi SRL")

	Cleanup(stagedPath)
	_, err = os.Stat(stagedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFileDownloaderMissingFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	d := NewFileDownloader(dir)
	download := d.Download(types.SyncProducts)

	_, err := download(context.Background(), nil)
	require.Error(t, err)
}

func TestParseCustomers(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "customers.csv",
		"customer_profile,name,vat,city\nCP-001,Rossi SRL,IT1,Milano\nCP-002,Bianchi SPA,IT2,Roma\n")

	records, err := ParseCustomers(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CP-001", records[0].CustomerProfile)
	assert.Equal(t, "Rossi SRL", records[0].Customer.Name)
	assert.Equal(t, "Milano", records[0].Customer.City)
}

func TestParseOrdersFoldsArticlesIntoParentOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "orders.csv",
		"id,order_number,sales_status,article_code,line_number,quantity\n"+
			"ORD-1,SO-1,Open,,,\n"+
			"ORD-1,SO-1,Open,ART-1,1,2\n"+
			"ORD-1,SO-1,Open,ART-2,2,1\n"+
			"ORD-2,SO-2,Confirmed,,,\n")

	records, err := ParseOrders(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ORD-1", records[0].Order.ID)
	require.Len(t, records[0].Articles, 2)
	assert.Equal(t, "ART-2", records[0].Articles[1].ArticleCode)
	assert.Empty(t, records[1].Articles)
}

func TestParseProductsCarriesHashUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "products.csv", "id,name,hash\nPROD-1,Widget,abc123\n")

	records, err := ParseProducts(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "abc123", records[0].Product.Hash)
}

func TestParsePricesParsesOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "prices.csv",
		"product_id,unit_price,price_valid_from,price_qty_from\nPROD-1,19.99,2026-01-01T00:00:00Z,10\n")

	records, err := ParsePrices(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Price.PriceQtyFrom)
	assert.Equal(t, 10.0, *records[0].Price.PriceQtyFrom)
}

func TestEmptySnapshotParsesToNoRecords(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "ddt.csv", "order_number,ddt_number\n")

	records, err := ParseDDT(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}
