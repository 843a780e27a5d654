package repository

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// parseSort turns "-price,name" into a mongo sort document. Unknown input
// falls back to newest-first.
func parseSort(sort string) bson.D {
	if sort == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}

	doc := bson.D{}
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		doc = append(doc, bson.E{Key: field, Value: order})
	}

	if len(doc) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return doc
}
