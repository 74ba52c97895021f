package storage

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/matst80/slask-storefront/pkg/types"
)

const catalogFile = "catalog.jz"
const ordersFile = "orders.jz"
const paymentsFile = "payments.json"

func (d *DiskStorage) LoadCatalog(output *types.Catalog) error {
	return d.LoadGzippedJson(output, catalogFile)
}

func (d *DiskStorage) SaveCatalog(catalog *types.Catalog) error {
	return d.SaveGzippedJson(catalog, catalogFile)
}

func (d *DiskStorage) LoadOrders(output *[]types.OrderDetail) error {
	return d.LoadGzippedJson(output, ordersFile)
}

func (d *DiskStorage) SaveOrders(details []types.OrderDetail) error {
	return d.SaveGzippedJson(details, ordersFile)
}

func (d *DiskStorage) LoadPayments(output *[]types.PaymentInfo) error {
	return d.LoadJson(output, paymentsFile)
}

func (d *DiskStorage) SavePayments(payments []types.PaymentInfo) error {
	return d.SaveJson(payments, paymentsFile)
}

func (d *DiskStorage) StreamContent(w io.Writer, fileName string) (int64, error) {
	osFileName, _ := d.GetFileName(fileName)
	file, err := os.Open(osFileName)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return file.WriteTo(w)
}

func (p *DiskStorage) SaveGzippedJson(data any, filename string) error {
	if err := p.ensureFolder(); err != nil {
		return err
	}
	fileName, tmpFileName := p.GetFileName(filename)

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	zipWriter := gzip.NewWriter(file)
	if err = json.NewEncoder(zipWriter).Encode(data); err != nil {
		_ = zipWriter.Close()
		_ = file.Close()
		_ = os.Remove(tmpFileName)
		return err
	}
	if err = zipWriter.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFileName)
		return err
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (p *DiskStorage) LoadGzippedJson(data any, filename string) error {
	name, _ := p.GetFileName(filename)
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	zipReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer zipReader.Close()

	err = json.NewDecoder(zipReader).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (p *DiskStorage) SaveJson(data any, name string) error {
	if err := p.ensureFolder(); err != nil {
		return err
	}
	fileName, tmpFileName := p.GetFileName(name)

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	err = json.NewEncoder(file).Encode(data)
	file.Close()
	if err != nil {
		_ = os.Remove(tmpFileName)
		return err
	}
	return os.Rename(tmpFileName, fileName)
}

func (p *DiskStorage) LoadJson(data any, filename string) error {
	name, _ := p.GetFileName(filename)
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
