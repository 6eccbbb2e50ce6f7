package engine

import (
	"fmt"
	"strings"

	"github.com/rushteam/recbot/core"
	"github.com/rushteam/recbot/model"
)

// Category 是面向用户的稳定消息类别，展示层按类别渲染，不必再解析错误。
type Category string

const (
	CategoryRegistered        Category = "registered"
	CategoryRated             Category = "rated"
	CategoryEstimate          Category = "estimate"
	CategoryColdStart         Category = "cold_start"
	CategoryUserNotFound      Category = "user_not_found"
	CategoryAlreadyRegistered Category = "already_registered"
	CategoryItemNotFound      Category = "item_not_found"
	CategoryInvalidRating     Category = "invalid_rating"
	CategoryInvalidInput      Category = "invalid_input"
	CategoryStorageFailure    Category = "storage_failure"
	CategoryInternal          Category = "internal"
)

// Message 是类别加一段可直接发送的文本。
type Message struct {
	Category Category
	Text     string
}

func (m Message) String() string { return m.Text }

// Describe 把错误映射为稳定的消息类别。nil 不是失败，调用方不应传入。
func Describe(err error) Message {
	de := core.GetDomainError(err)
	if de == nil {
		return Message{Category: CategoryInternal, Text: "An error occurred. Please try again."}
	}
	switch de.Code {
	case core.ErrorCodeUserNotFound:
		return Message{Category: CategoryUserNotFound, Text: "You are not registered yet. Register first, then try again."}
	case core.ErrorCodeAlreadyRegistered:
		return Message{Category: CategoryAlreadyRegistered, Text: "You or that name are already registered."}
	case core.ErrorCodeItemNotFound:
		return Message{Category: CategoryItemNotFound, Text: "No item in the catalog matches that name closely enough."}
	case core.ErrorCodeInvalidRating:
		return Message{Category: CategoryInvalidRating, Text: "Ratings must be a number from 1 to 5."}
	case core.ErrorCodeInvalidInput:
		return Message{Category: CategoryInvalidInput, Text: "Invalid input. Please check the arguments and try again."}
	case core.ErrorCodeStorageFailure:
		return Message{Category: CategoryStorageFailure, Text: "Could not save your data right now. Nothing was changed."}
	}
	return Message{Category: CategoryInternal, Text: "An error occurred. Please try again."}
}

// DescribePrediction 把预测结果映射为 estimate 或 cold_start。
func DescribePrediction(p Prediction) Message {
	item := p.Match.Title
	if item == "" {
		item = fmt.Sprintf("item %d", p.Match.ItemID)
	}
	if !p.Estimate.Known {
		return Message{
			Category: CategoryColdStart,
			Text:     fmt.Sprintf("Not enough rating history to predict %s yet (%s).", item, coldStartReason(p.Estimate.Reason)),
		}
	}
	return Message{
		Category: CategoryEstimate,
		Text:     fmt.Sprintf("Predicted rating for %s is %.2f.", item, p.Estimate.Value),
	}
}

func coldStartReason(reason string) string {
	switch reason {
	case model.ReasonUnknownUser:
		return "you have not rated anything"
	case model.ReasonUnknownItem:
		return "nobody has rated it"
	case model.ReasonUntrained:
		return "the model is not trained"
	}
	return "unknown"
}

// DescribeRegistration 描述一次成功注册。
func DescribeRegistration(userID int64, displayName string) Message {
	return Message{
		Category: CategoryRegistered,
		Text:     fmt.Sprintf("Registered %s as user %d.", displayName, userID),
	}
}

// DescribeSubmission 描述一次成功评分。
func DescribeSubmission(s Submission) Message {
	return Message{
		Category: CategoryRated,
		Text:     fmt.Sprintf("Saved your rating of %s for %s.", formatValue(s.Rating.Value), s.Match.Title),
	}
}

func formatValue(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
