package sqlinline

const QInsertQuest = `--sql ad773077-588c-4c2e-b8dc-5ae01079c273
insert into quests(title, description, difficulty_level, required_points, reward_points, reward_nft_id, is_active)
values ($1, $2, $3, $4, $5, $6, true)
returning id;
`

const QInsertQuestConditions = `--sql 4c3d1ba3-653f-44ad-8f88-25d947253d05
insert into quest_conditions(quest_id, condition_type, target_id, target_value, description)
select $1, t.condition_type, t.target_id, t.target_value, t.description
from unnest($2::text[], $3::bigint[], $4::int[], $5::text[])
  as t(condition_type, target_id, target_value, description);
`

const QInsertRewardNFT = `--sql 0105f06b-4a46-44b9-88c1-728f396647c8
insert into nfts(title, description, rarity, is_active)
values ($1, $2, $3, true)
returning id;
`

const QActiveQuests = `--sql 76a0f69b-265a-4a8d-88ae-0a76e80cdc36
select id, title, coalesce(description, '')
from quests
where is_active
order by created_at desc;
`
