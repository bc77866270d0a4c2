package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Course is an internal training course with an optional quiz.
type Course struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Lessons     []Lesson       `json:"lessons"`
	Quiz        []QuizQuestion `json:"quiz"`
	Published   bool           `json:"published"`
	Order       int            `json:"order"`
	CreatedDate time.Time      `json:"created_date"`
	UpdatedDate time.Time      `json:"updated_date"`
}

type Lesson struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	VideoURL string `json:"video_url"`
}

func (l Lesson) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.VideoURL, is.URL),
	)
}

// QuizQuestion holds the index of the correct option in Answer.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

func (q QuizQuestion) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Question, validation.Required),
		validation.Field(&q.Options, validation.Required, validation.Length(2, 10), validation.Each(validation.Required)),
		validation.Field(&q.Answer, validation.Min(0), validation.Max(len(q.Options)-1)),
	)
}

func (c Course) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Lessons),
		validation.Field(&c.Quiz),
		validation.Field(&c.Order, validation.Min(0)),
	)
}

// QuizResult is the outcome of grading a submission.
type QuizResult struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Passed  bool    `json:"passed"`
}

// PassingPercent is the score needed to pass a course quiz.
const PassingPercent = 70.0

// Grade scores answers positionally; missing answers count as wrong.
func (c Course) Grade(answers []int) QuizResult {
	res := QuizResult{Total: len(c.Quiz)}
	for i, q := range c.Quiz {
		if i < len(answers) && answers[i] == q.Answer {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Percent = float64(res.Correct) * 100 / float64(res.Total)
	}
	res.Passed = res.Total > 0 && res.Percent >= PassingPercent
	return res
}

// PublicQuestion is a quiz question without its answer.
type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// PublicCourse is the course as shown to learners.
type PublicCourse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Lessons     []Lesson         `json:"lessons"`
	Quiz        []PublicQuestion `json:"quiz"`
	Order       int              `json:"order"`
}

func (c Course) Public() PublicCourse {
	quiz := make([]PublicQuestion, len(c.Quiz))
	for i, q := range c.Quiz {
		quiz[i] = PublicQuestion{Question: q.Question, Options: q.Options}
	}
	return PublicCourse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Lessons:     c.Lessons,
		Quiz:        quiz,
		Order:       c.Order,
	}
}
