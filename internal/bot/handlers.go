package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/report"
	"github.com/omarshaarawi/leaguedesk/internal/service"
	"github.com/omarshaarawi/leaguedesk/internal/trade"
)

const helpText = `Available commands:
/standings - League standings
/matchup [week] - Matchups for a week (alias /scores)
/team <team> - A team's roster and player values
/whohas <player> - Which team rosters a player
/monitor - Injured starters to keep an eye on
/finalscore [week] - Final scores and trophies
/mondaynight - Close games heading into Monday night
/budgets [team] - FAAB budgets
/trade <team> <team> give=<ids> receive=<ids> - Evaluate a trade
/propose <team> <team> give=<ids> receive=<ids> - Propose a trade
/trades - Trade proposals
/accept, /reject, /cancel <trade id> - Resolve a proposal
/suggest <team> - Roster suggestions
/claim <team> - Link a team to your account
/sync - Refresh league data from ESPN
/leagues - Connected leagues`

type Handler struct {
	fantasyService *service.FantasyService
	leagueID       string
	logger         *slog.Logger
}

// NewHandler serves commands against leagueID.
func NewHandler(fantasyService *service.FantasyService, leagueID string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{fantasyService: fantasyService, leagueID: leagueID, logger: logger}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = "Markdown"

	switch command {
	case "start":
		msg.Text = "Welcome to LeagueDesk! Use /help to see available commands."
	case "help":
		msg.Text = helpText
	case "scores", "matchup":
		h.handleMatchup(ctx, &msg, args)
	case "standings":
		h.handleStandings(ctx, &msg)
	case "whohas":
		h.handleWhoHas(ctx, &msg, args)
	case "monitor":
		h.handlePlayersToMonitor(ctx, &msg)
	case "finalscore":
		h.handleFinalScore(ctx, &msg, args)
	case "mondaynight":
		h.handleMondayNightGames(ctx, &msg)
	case "team":
		h.handleTeam(ctx, &msg, args)
	case "budgets":
		h.handleBudgets(ctx, &msg, args)
	case "trade":
		h.handleTrade(ctx, &msg, args, false)
	case "propose":
		h.handleTrade(ctx, &msg, args, true)
	case "trades":
		h.handleTrades(ctx, &msg)
	case "accept", "reject", "cancel":
		h.handleTradeStatus(ctx, &msg, args, command)
	case "suggest":
		h.handleSuggest(ctx, &msg, args)
	case "claim":
		h.handleClaim(ctx, &msg, args, userID(update.Message.From))
	case "sync":
		h.handleSync(ctx, &msg)
	case "leagues":
		h.handleLeagues(ctx, &msg)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func userID(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	return "tg:" + strconv.FormatInt(from.ID, 10)
}

// errorText turns a service error into a chat reply.
func (h *Handler) errorText(action string, err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return fmt.Sprintf("🔍 %v", err)
	case apperr.KindValidation:
		return fmt.Sprintf("⚠️ %v", err)
	case apperr.KindSyncInProgress:
		return "⏳ A sync is already running for this league. Try again shortly."
	case apperr.KindRateLimited, apperr.KindUpstreamUnavailable:
		return fmt.Sprintf("📡 ESPN is not responding right now. Error %s: %v", action, err)
	case apperr.KindUnauthorized:
		return "🔒 ESPN rejected the league credentials. Check ESPN_SWID and ESPN_S2."
	}
	h.logger.Error("Command failed", "action", action, "league_id", h.leagueID, "error", err)
	return fmt.Sprintf("Error %s: %v", action, err)
}

// parsePeriod reads an optional week number. Empty input selects the
// current week.
func parsePeriod(args string) (int, error) {
	if args == "" {
		return 0, nil
	}
	period, err := strconv.Atoi(args)
	if err != nil || period <= 0 {
		return 0, apperr.Validationf("week must be a positive number, got %q", args)
	}
	return period, nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, apperr.Validationf("invalid player id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseTradeArgs reads "<proposer> <receiver> give=1,2 receive=3". Teams are
// resolved separately so that names and ids both work.
func parseTradeArgs(args string) (proposer, receiver string, give, receive []int64, err error) {
	var teams []string
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			teams = append(teams, field)
			continue
		}
		ids, err := parseIDs(value)
		if err != nil {
			return "", "", nil, nil, err
		}
		switch strings.ToLower(key) {
		case "give":
			give = append(give, ids...)
		case "receive", "get":
			receive = append(receive, ids...)
		default:
			return "", "", nil, nil, apperr.Validationf("unknown trade argument %q", key)
		}
	}
	if len(teams) != 2 {
		return "", "", nil, nil, apperr.Validationf("a trade needs exactly two teams, got %d", len(teams))
	}
	return teams[0], teams[1], give, receive, nil
}

func (h *Handler) handleMatchup(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	period, err := parsePeriod(args)
	if err != nil {
		msg.Text = h.errorText("reading week", err)
		return
	}
	res, err := h.fantasyService.GetMatchups(ctx, h.leagueID, period)
	if err != nil {
		msg.Text = h.errorText("generating matchups report", err)
		return
	}
	msg.Text = report.Matchups(res)
}

func (h *Handler) handleStandings(ctx context.Context, msg *tgbotapi.MessageConfig) {
	res, err := h.fantasyService.GetTeams(ctx, h.leagueID)
	if err != nil {
		msg.Text = h.errorText("fetching standings", err)
		return
	}
	msg.Text = report.Standings(res)
}

func (h *Handler) handleWhoHas(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a player name. Usage: /whohas <player name>"
		return
	}
	hits, err := h.fantasyService.SearchPlayers(ctx, h.leagueID, args, 0)
	if err != nil {
		msg.Text = h.errorText("checking who has player", err)
		return
	}
	msg.Text = report.WhoHas(args, hits)
}

func (h *Handler) handlePlayersToMonitor(ctx context.Context, msg *tgbotapi.MessageConfig) {
	players, _, err := h.fantasyService.PlayersToMonitor(ctx, h.leagueID)
	if err != nil {
		msg.Text = h.errorText("fetching players to monitor", err)
		return
	}
	msg.Text = report.PlayersToMonitor(players)
}

func (h *Handler) handleFinalScore(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	period, err := parsePeriod(args)
	if err != nil {
		msg.Text = h.errorText("reading week", err)
		return
	}
	r, err := h.fantasyService.WeeklyRecap(ctx, h.leagueID, period)
	if err != nil {
		msg.Text = h.errorText("generating final score report", err)
		return
	}
	msg.Text = report.FinalScores(r)
}

func (h *Handler) handleMondayNightGames(ctx context.Context, msg *tgbotapi.MessageConfig) {
	games, _, err := h.fantasyService.CloseGames(ctx, h.leagueID)
	if err != nil {
		msg.Text = h.errorText("generating Monday night close games report", err)
		return
	}
	msg.Text = report.CloseGames(games)
}

func (h *Handler) handleTeam(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a team name. Usage: /team <team name>"
		return
	}
	team, err := h.fantasyService.FindTeam(ctx, h.leagueID, args)
	if err != nil {
		msg.Text = h.errorText("finding team", err)
		return
	}
	res, err := h.fantasyService.GetRoster(ctx, h.leagueID, team.ExternalID)
	if err != nil {
		msg.Text = h.errorText("getting team roster", err)
		return
	}
	msg.Text = report.Roster(res)
}

func (h *Handler) handleBudgets(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	teamID := 0
	if args != "" {
		team, err := h.fantasyService.FindTeam(ctx, h.leagueID, args)
		if err != nil {
			msg.Text = h.errorText("finding team", err)
			return
		}
		teamID = team.ExternalID
	}
	res, err := h.fantasyService.GetWaiverBudgets(ctx, h.leagueID, teamID)
	if err != nil {
		msg.Text = h.errorText("fetching budgets", err)
		return
	}
	msg.Text = report.Budgets(res)
}

func (h *Handler) tradeRequest(ctx context.Context, args string) (trade.Request, error) {
	proposer, receiver, give, receive, err := parseTradeArgs(args)
	if err != nil {
		return trade.Request{}, err
	}
	from, err := h.fantasyService.FindTeam(ctx, h.leagueID, proposer)
	if err != nil {
		return trade.Request{}, err
	}
	to, err := h.fantasyService.FindTeam(ctx, h.leagueID, receiver)
	if err != nil {
		return trade.Request{}, err
	}
	return trade.Request{
		LeagueID:        h.leagueID,
		ProposingTeamID: from.ExternalID,
		ReceivingTeamID: to.ExternalID,
		Give:            give,
		Receive:         receive,
	}, nil
}

func (h *Handler) handleTrade(ctx context.Context, msg *tgbotapi.MessageConfig, args string, propose bool) {
	if args == "" {
		msg.Text = "Usage: /trade <your team> <their team> give=<player ids> receive=<player ids>"
		return
	}
	req, err := h.tradeRequest(ctx, args)
	if err != nil {
		msg.Text = h.errorText("reading trade", err)
		return
	}

	if !propose {
		ev, err := h.fantasyService.EvaluateTrade(ctx, req)
		if err != nil {
			msg.Text = h.errorText("evaluating trade", err)
			return
		}
		msg.Text = report.Evaluation(ev)
		return
	}

	proposal, _, err := h.fantasyService.ProposeTrade(ctx, req)
	if err != nil {
		msg.Text = h.errorText("proposing trade", err)
		return
	}
	msg.Text = report.Proposal(proposal)
}

func (h *Handler) handleTrades(ctx context.Context, msg *tgbotapi.MessageConfig) {
	proposals, err := h.fantasyService.ListTradeProposals(ctx, h.leagueID)
	if err != nil {
		msg.Text = h.errorText("listing trades", err)
		return
	}
	msg.Text = report.Trades(proposals)
}

var statusFor = map[string]string{
	"accept": "accepted",
	"reject": "rejected",
	"cancel": "cancelled",
}

func (h *Handler) handleTradeStatus(ctx context.Context, msg *tgbotapi.MessageConfig, args, command string) {
	if args == "" {
		msg.Text = fmt.Sprintf("Please provide a trade id. Usage: /%s <trade id>", command)
		return
	}
	proposal, err := h.fantasyService.UpdateTradeStatus(ctx, args, statusFor[command])
	if err != nil {
		msg.Text = h.errorText("updating trade", err)
		return
	}
	msg.Text = report.Proposal(proposal)
}

func (h *Handler) handleSuggest(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a team name. Usage: /suggest <team name>"
		return
	}
	team, err := h.fantasyService.FindTeam(ctx, h.leagueID, args)
	if err != nil {
		msg.Text = h.errorText("finding team", err)
		return
	}
	res, err := h.fantasyService.GetSuggestions(ctx, h.leagueID, team.ExternalID)
	if err != nil {
		msg.Text = h.errorText("building suggestions", err)
		return
	}
	msg.Text = report.Suggestions(res)
}

func (h *Handler) handleClaim(ctx context.Context, msg *tgbotapi.MessageConfig, args, user string) {
	if args == "" {
		msg.Text = "Please provide a team name. Usage: /claim <team name>"
		return
	}
	if user == "" {
		msg.Text = "Cannot claim a team without a Telegram user."
		return
	}
	team, err := h.fantasyService.FindTeam(ctx, h.leagueID, args)
	if err != nil {
		msg.Text = h.errorText("finding team", err)
		return
	}
	team, err = h.fantasyService.ClaimTeam(ctx, h.leagueID, team.ExternalID, user)
	if err != nil {
		msg.Text = h.errorText("claiming team", err)
		return
	}
	msg.Text = fmt.Sprintf("✅ *%s* is now linked to your account.", team.Name)
}

func (h *Handler) handleSync(ctx context.Context, msg *tgbotapi.MessageConfig) {
	res, err := h.fantasyService.SyncLeague(ctx, h.leagueID)
	if err != nil {
		msg.Text = h.errorText("syncing league", err)
		if apperr.KindOf(err) != apperr.KindSyncInProgress {
			msg.Text += "\nStored data is still available."
		}
		return
	}
	msg.Text = report.Sync(res)
}

func (h *Handler) handleLeagues(ctx context.Context, msg *tgbotapi.MessageConfig) {
	leagues, err := h.fantasyService.ListLeagues(ctx)
	if err != nil {
		msg.Text = h.errorText("listing leagues", err)
		return
	}
	msg.Text = report.Leagues(leagues)
}
