package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"senate-votes/database"
	"senate-votes/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type SeatVote struct {
	Slot      string `json:"slot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Party     string `json:"party"`
	// Vote is empty when no cast is stored for the seat.
	Vote string `json:"vote"`
}

type RollCallResult struct {
	ID                  string         `json:"id"`
	VoteDate            time.Time      `json:"vote_date"`
	Title               string         `json:"title"`
	DocumentText        string         `json:"document_text"`
	MajorityRequirement string         `json:"majority_requirement"`
	Result              string         `json:"result"`
	Tally               models.Tally   `json:"tally"`
	Totals              map[string]int `json:"totals"`
	Votes               []SeatVote     `json:"votes,omitempty"`
}

// ListRollCalls returns roll calls newest first. With ?state=XX each
// result carries how that state's senators voted.
func (h *Handlers) ListRollCalls(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	state := strings.ToUpper(strings.TrimSpace(c.Query("state")))

	var senators []models.Senator
	if state != "" {
		senators, err = h.store.Senators(state)
		if err != nil {
			h.logger.Error("failed to load senators", zap.String("state", state), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if len(senators) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown state"})
			return
		}
	}

	records, err := h.store.RollCalls(limit, offset)
	if err != nil {
		h.logger.Error("failed to load roll calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]RollCallResult, 0, len(records))
	for _, rec := range records {
		results = append(results, toResult(rec, senators))
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handlers) GetRollCall(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.store.RollCall(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Roll call not found"})
			return
		}
		h.logger.Error("failed to load roll call", zap.String("rollcall_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func toResult(rec database.RollCallRecord, senators []models.Senator) RollCallResult {
	ret := RollCallResult{
		ID:                  rec.ID,
		VoteDate:            rec.VoteDate,
		Title:               rec.Title,
		DocumentText:        rec.DocumentText,
		MajorityRequirement: rec.MajorityRequirement,
		Result:              rec.Result,
		Tally:               rec.Tally,
		Totals:              rec.Totals,
	}
	for _, s := range senators {
		sv := SeatVote{
			Slot:      s.ColumnSlot,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Party:     s.Party,
		}
		if cast, ok := rec.Seats[s.ColumnSlot]; ok {
			sv.Vote = cast.String()
		}
		ret.Votes = append(ret.Votes, sv)
	}
	return ret
}
