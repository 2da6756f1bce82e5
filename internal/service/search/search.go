package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/koyabica/carrent/internal/models"
)

// CarDoc is the flattened car document kept in the search index. Every
// localized name is searchable; the default-language name doubles as the
// display name.
type CarDoc struct {
	ID    uint     `json:"id"`
	Year  int      `json:"year"`
	Name  string   `json:"name"`
	Names []string `json:"names"`
}

func NewCarDoc(car *models.Car) CarDoc {
	doc := CarDoc{
		ID:   car.ID,
		Year: car.Year,
		Name: car.LocalizedName(models.DefaultLanguageCode, false),
	}
	for _, cl := range car.Names {
		doc.Names = append(doc.Names, cl.Name)
	}
	return doc
}

// IndexCar upserts the car's document.
func IndexCar(ctx context.Context, es *elasticsearch.Client, index string, car *models.Car) error {
	body, err := json.Marshal(NewCarDoc(car))
	if err != nil {
		return fmt.Errorf("index car: %w", err)
	}

	res, err := es.Index(
		index,
		bytes.NewReader(body),
		es.Index.WithContext(ctx),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(car.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index car: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index car: %s", res.Status())
	}
	return nil
}

// DeleteCar drops the car's document. A missing document is not an error.
func DeleteCar(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(
		index,
		strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete car: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy match over all localized names and returns one page of
// hits together with the total.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []CarDoc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "names"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source CarDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]CarDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
