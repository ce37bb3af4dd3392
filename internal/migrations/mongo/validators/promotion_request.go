package validators

import (
	"keja/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var PromotionRequestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"listing_id",
			"requester_id",
			"weeks",
			"evidence_ref",
			"status",
			"created_at",
			"applied",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"listing_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"requester_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"weeks": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  model.MaxPromotionWeeks,
			},

			"evidence_ref": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 2048,
			},

			"status": bson.M{
				"enum": []string{"pending", "approved", "rejected"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"decided_at": bson.M{
				"bsonType": bson.A{"date", "null"},
			},

			"decider_id": bson.M{
				"bsonType": bson.A{"string", "null"},
			},

			"promotion_expires_at": bson.M{
				"bsonType": bson.A{"date", "null"},
			},

			"applied": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
