package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = bson.A{"int", "long"}

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"location",
			"city",
			"status",
			"created_at",
			"is_promoted",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 5000,
			},

			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"city": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"category": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"amenities": bson.M{
				"bsonType": bson.A{"array", "null"},
				"items": bson.M{
					"bsonType":  "string",
					"maxLength": 50,
				},
			},

			"bedrooms": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"bathrooms": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"price": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"status": bson.M{
				"enum": []string{
					"for_rent", "for_sale", "short_let", "land_sale", "land_lease",
					"draft", "rented", "sold", "archived",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"is_promoted": bson.M{
				"bsonType": "bool",
			},

			"promotion_expires_at": bson.M{
				"bsonType": bson.A{"date", "null"},
			},

			"applied_promotion_ids": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
				},
			},
		},
	},
}
